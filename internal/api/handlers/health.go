package handlers

import (
	"net/http"

	"github.com/amaumene/popcorn/internal/controllers"
	"github.com/sirupsen/logrus"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	browser *controllers.Browser
	logger  *logrus.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(browser *controllers.Browser, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		browser: browser,
		logger:  logger,
	}
}

// HealthResponse reports liveness with a glimpse of the session
type HealthResponse struct {
	Status  string `json:"status"`
	Search  string `json:"search"`
	Watched int    `json:"watched"`
}

// ServeHTTP handles the health check endpoint
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Search:  string(h.browser.SearchState().Status()),
		Watched: len(h.browser.Watched()),
	})
}
