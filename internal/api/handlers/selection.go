package handlers

import (
	"net/http"

	"github.com/amaumene/popcorn/internal/controllers"
	"github.com/amaumene/popcorn/internal/models"
	"github.com/sirupsen/logrus"
)

// SelectionHandler handles the open movie and its rating
type SelectionHandler struct {
	browser *controllers.Browser
	logger  *logrus.Logger
}

// NewSelectionHandler creates a new selection handler
func NewSelectionHandler(browser *controllers.Browser, logger *logrus.Logger) *SelectionHandler {
	return &SelectionHandler{
		browser: browser,
		logger:  logger,
	}
}

// SelectionResponse describes the detail pane
type SelectionResponse struct {
	Selected      string             `json:"selected"`
	State         models.DetailState `json:"state"`
	Rating        int                `json:"rating"`
	Revisions     int                `json:"revisions"`
	WatchedRating int                `json:"watchedRating,omitempty"`
}

type selectRequest struct {
	ID string `json:"id"`
}

type rateRequest struct {
	Rating int `json:"rating"`
}

func (h *SelectionHandler) response() SelectionResponse {
	rating, revisions := h.browser.Draft()
	resp := SelectionResponse{
		Selected:  h.browser.Selected(),
		State:     h.browser.DetailState(),
		Rating:    rating,
		Revisions: revisions,
	}
	if watched, ok := h.browser.WatchedRating(resp.Selected); ok {
		resp.WatchedRating = watched
	}
	return resp
}

// ServeHTTP handles /api/selection
func (h *SelectionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.response())
	case http.MethodPost:
		var req selectRequest
		if !decodeBody(w, r, h.logger, &req) {
			return
		}
		if req.ID == "" {
			http.Error(w, "Missing id", http.StatusBadRequest)
			return
		}
		h.browser.Select(req.ID)
		writeJSON(w, http.StatusAccepted, h.response())
	case http.MethodDelete:
		h.browser.CloseMovie()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Rate handles PUT /api/selection/rating
func (h *SelectionHandler) Rate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req rateRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	if err := h.browser.Rate(req.Rating); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.response())
}
