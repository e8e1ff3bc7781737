package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/amaumene/popcorn/internal/models"
	"github.com/sirupsen/logrus"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps session errors to HTTP statuses
func writeError(w http.ResponseWriter, logger *logrus.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrInvalidRating):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrNothingSelected),
		errors.Is(err, models.ErrDetailNotLoaded),
		errors.Is(err, models.ErrAlreadyWatched):
		status = http.StatusConflict
	default:
		logger.WithError(err).Error("Request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, logger *logrus.Logger, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.WithError(err).Debug("Failed to decode request body")
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return false
	}
	return true
}
