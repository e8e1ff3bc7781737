package models

import "errors"

// Error taxonomy shared by the metadata client and the controllers
var (
	// ErrTransport covers network failures, timeouts and non-success HTTP statuses
	ErrTransport = errors.New("transport error")
	// ErrNotFound means the service answered but reported no match
	ErrNotFound = errors.New("not found")
	// ErrCancelled marks a superseded request cycle. It never reaches user-visible state.
	ErrCancelled = errors.New("request cancelled")

	ErrInvalidRating   = errors.New("invalid rating")
	ErrAlreadyWatched  = errors.New("movie already in watched list")
	ErrNothingSelected = errors.New("no movie selected")
	ErrDetailNotLoaded = errors.New("movie details not loaded")
)

// FailureMessage maps an error to the message exposed in a Failure state.
// Transport and not-found failures collapse into their sentinel text.
func FailureMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return ErrNotFound.Error()
	default:
		return ErrTransport.Error()
	}
}
