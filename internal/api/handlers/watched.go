package handlers

import (
	"net/http"
	"strings"

	"github.com/amaumene/popcorn/internal/controllers"
	"github.com/amaumene/popcorn/internal/stats"
	"github.com/sirupsen/logrus"
)

// WatchedHandler handles the watched list
type WatchedHandler struct {
	browser *controllers.Browser
	logger  *logrus.Logger
}

// NewWatchedHandler creates a new watched handler
func NewWatchedHandler(browser *controllers.Browser, logger *logrus.Logger) *WatchedHandler {
	return &WatchedHandler{
		browser: browser,
		logger:  logger,
	}
}

// ServeHTTP handles /api/watched and /api/watched/{id}
func (h *WatchedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/watched"), "/")

	switch {
	case r.Method == http.MethodGet && id == "":
		writeJSON(w, http.StatusOK, h.browser.Watched())
	case r.Method == http.MethodPost && id == "":
		entry, err := h.browser.AddWatched()
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	case r.Method == http.MethodDelete && id != "":
		h.browser.RemoveWatched(id)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// StatsHandler handles watched list statistics
type StatsHandler struct {
	browser *controllers.Browser
	logger  *logrus.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(browser *controllers.Browser, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{
		browser: browser,
		logger:  logger,
	}
}

// StatsResponse carries the raw and display forms of the summary
type StatsResponse struct {
	Summary   stats.Summary   `json:"summary"`
	Formatted stats.Formatted `json:"formatted"`
}

// ServeHTTP handles the stats endpoint
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	summary := h.browser.Summary()
	writeJSON(w, http.StatusOK, StatsResponse{
		Summary:   summary,
		Formatted: summary.Formatted(),
	})
}
