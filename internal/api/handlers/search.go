package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/popcorn/internal/controllers"
	"github.com/amaumene/popcorn/internal/models"
	"github.com/sirupsen/logrus"
)

// SearchHandler handles the query and its search state
type SearchHandler struct {
	browser *controllers.Browser
	logger  *logrus.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(browser *controllers.Browser, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		browser: browser,
		logger:  logger,
	}
}

// SearchResponse is the current query with its request state
type SearchResponse struct {
	Query string              `json:"query"`
	State models.RequestState `json:"state"`
	Count int                 `json:"count"`
}

type queryRequest struct {
	Query string `json:"query"`
}

func (h *SearchHandler) response() SearchResponse {
	state := h.browser.SearchState()
	return SearchResponse{
		Query: h.browser.Query(),
		State: state,
		Count: len(state.Results()),
	}
}

// ServeHTTP handles /api/search (GET) and /api/query (PUT)
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.response())
	case http.MethodPut:
		var req queryRequest
		if !decodeBody(w, r, h.logger, &req) {
			return
		}
		h.browser.SetQuery(req.Query)
		writeJSON(w, http.StatusAccepted, h.response())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// EventsHandler streams search state transitions as server-sent events
type EventsHandler struct {
	browser *controllers.Browser
	logger  *logrus.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(browser *controllers.Browser, logger *logrus.Logger) *EventsHandler {
	return &EventsHandler{
		browser: browser,
		logger:  logger,
	}
}

// ServeHTTP handles the event stream endpoint
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	// The server write timeout would cut the stream
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.WithError(err).Debug("Could not clear write deadline")
	}

	// Listeners run inside the controller transition, so they only hand the
	// state over. When the client lags, older states are dropped for newer ones.
	states := make(chan models.RequestState, 8)
	unsubscribe := h.browser.SubscribeSearch(func(s models.RequestState) {
		for {
			select {
			case states <- s:
				return
			default:
			}
			select {
			case <-states:
			default:
			}
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, h.browser.SearchState()); err != nil {
		return
	}
	flusher.Flush()

	h.logger.WithField("remote_addr", r.RemoteAddr).Debug("Search event stream opened")
	for {
		select {
		case <-r.Context().Done():
			h.logger.WithField("remote_addr", r.RemoteAddr).Debug("Search event stream closed")
			return
		case s := <-states:
			if err := writeEvent(w, s); err != nil {
				h.logger.WithError(err).Debug("Failed to write search event")
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, state models.RequestState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", state.Status(), data)
	return err
}
