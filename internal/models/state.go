package models

import "encoding/json"

// Status represents the phase of a request cycle
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// RequestState is the state of one search cycle.
// Fields are unexported so that only the constructors below can build one;
// a state is never loading and failed at the same time.
type RequestState struct {
	status  Status
	results []SearchResult
	message string
}

// Idle returns the state before any search ran
func Idle() RequestState {
	return RequestState{status: StatusIdle}
}

// Loading returns the state while a request is in flight
func Loading() RequestState {
	return RequestState{status: StatusLoading}
}

// Success returns a state holding the given results
func Success(results []SearchResult) RequestState {
	copied := make([]SearchResult, len(results))
	copy(copied, results)
	return RequestState{status: StatusSuccess, results: copied}
}

// Failure returns a state carrying a user-visible message
func Failure(message string) RequestState {
	return RequestState{status: StatusFailure, message: message}
}

func (s RequestState) Status() Status { return s.status }

// Results returns a copy of the results; empty unless the state is a success
func (s RequestState) Results() []SearchResult {
	copied := make([]SearchResult, len(s.results))
	copy(copied, s.results)
	return copied
}

// Message returns the failure message; empty unless the state is a failure
func (s RequestState) Message() string { return s.message }

func (s RequestState) IsLoading() bool { return s.status == StatusLoading }

// Equal reports whether both states carry the same variant and payload
func (s RequestState) Equal(other RequestState) bool {
	if s.status != other.status || s.message != other.message || len(s.results) != len(other.results) {
		return false
	}
	for i := range s.results {
		if s.results[i] != other.results[i] {
			return false
		}
	}
	return true
}

type requestStateJSON struct {
	Status  Status         `json:"status"`
	Results []SearchResult `json:"results"`
	Error   string         `json:"error,omitempty"`
}

// MarshalJSON renders the state for API consumers
func (s RequestState) MarshalJSON() ([]byte, error) {
	return json.Marshal(requestStateJSON{
		Status:  s.status,
		Results: s.Results(),
		Error:   s.message,
	})
}

// DetailState is the state of the detail pane for the selected movie
type DetailState struct {
	status  Status
	id      string
	detail  *MovieDetail
	message string
}

// DetailIdle returns the state with nothing selected
func DetailIdle() DetailState {
	return DetailState{status: StatusIdle}
}

// DetailLoading returns the state while the detail of id is fetched
func DetailLoading(id string) DetailState {
	return DetailState{status: StatusLoading, id: id}
}

// DetailSuccess returns the state holding a fetched detail
func DetailSuccess(id string, detail MovieDetail) DetailState {
	return DetailState{status: StatusSuccess, id: id, detail: &detail}
}

// DetailFailure returns the state for a failed detail fetch
func DetailFailure(id string, message string) DetailState {
	return DetailState{status: StatusFailure, id: id, message: message}
}

func (s DetailState) Status() Status { return s.status }

// ID returns the selected movie id; empty when idle
func (s DetailState) ID() string { return s.id }

// Detail returns the loaded detail, if any
func (s DetailState) Detail() (MovieDetail, bool) {
	if s.detail == nil {
		return MovieDetail{}, false
	}
	return *s.detail, true
}

func (s DetailState) Message() string { return s.message }

type detailStateJSON struct {
	Status Status       `json:"status"`
	ID     string       `json:"imdbID,omitempty"`
	Detail *MovieDetail `json:"detail,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// MarshalJSON renders the state for API consumers
func (s DetailState) MarshalJSON() ([]byte, error) {
	return json.Marshal(detailStateJSON{
		Status: s.status,
		ID:     s.id,
		Detail: s.detail,
		Error:  s.message,
	})
}
