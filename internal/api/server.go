package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/popcorn/internal/api/handlers"
	"github.com/amaumene/popcorn/internal/api/middleware"
	"github.com/amaumene/popcorn/internal/config"
	"github.com/amaumene/popcorn/internal/controllers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	server   *http.Server
	browser  *controllers.Browser
	gatherer prometheus.Gatherer
	logger   *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, browser *controllers.Browser, gatherer prometheus.Gatherer, logger *logrus.Logger) *Server {
	s := &Server{
		browser:  browser,
		gatherer: gatherer,
		logger:   logger,
	}

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the routed handler wrapped in the logging middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.setupRoutes(mux)
	return middleware.Logging(mux, s.logger)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	// Health check
	healthHandler := handlers.NewHealthHandler(s.browser, s.logger)
	mux.HandleFunc("/health", healthHandler.ServeHTTP)

	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	// Query and search state
	searchHandler := handlers.NewSearchHandler(s.browser, s.logger)
	mux.HandleFunc("/api/query", searchHandler.ServeHTTP)
	mux.HandleFunc("/api/search", searchHandler.ServeHTTP)
	eventsHandler := handlers.NewEventsHandler(s.browser, s.logger)
	mux.HandleFunc("/api/search/events", eventsHandler.ServeHTTP)

	// Open movie
	selectionHandler := handlers.NewSelectionHandler(s.browser, s.logger)
	mux.HandleFunc("/api/selection", selectionHandler.ServeHTTP)
	mux.HandleFunc("/api/selection/rating", selectionHandler.Rate)

	// Watched list
	watchedHandler := handlers.NewWatchedHandler(s.browser, s.logger)
	mux.HandleFunc("/api/watched", watchedHandler.ServeHTTP)
	mux.HandleFunc("/api/watched/", watchedHandler.ServeHTTP)
	statsHandler := handlers.NewStatsHandler(s.browser, s.logger)
	mux.HandleFunc("/api/stats", statsHandler.ServeHTTP)
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
