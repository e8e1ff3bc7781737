package models

import (
	"fmt"
	"math"
)

// Rating bounds accepted from the rating widget
const (
	MinUserRating = 1
	MaxUserRating = 10
)

// SearchResult represents a single search hit from the metadata service
type SearchResult struct {
	ID        string `json:"imdbID"`
	Title     string `json:"title"`
	Year      string `json:"year"`
	PosterURL string `json:"poster"`
}

// MovieDetail represents the full record shown when a result is selected
type MovieDetail struct {
	ID             string  `json:"imdbID"`
	Title          string  `json:"title"`
	Year           string  `json:"year"`
	PosterURL      string  `json:"poster"`
	RuntimeMinutes int     `json:"runtime"`
	IMDbRating     float64 `json:"imdbRating"`
	Plot           string  `json:"plot"`
	ReleaseDate    string  `json:"released"`
	Actors         string  `json:"actors"`
	Director       string  `json:"director"`
	Genre          string  `json:"genre"`
}

// WatchedEntry is a rated movie kept across sessions.
// JSON names match the layout already present in existing "watched" payloads.
type WatchedEntry struct {
	ID                  string  `json:"imdbID"`
	Title               string  `json:"title"`
	PosterURL           string  `json:"poster"`
	Year                string  `json:"year"`
	IMDbRating          float64 `json:"imdbRating"`
	RuntimeMinutes      int     `json:"runtime"`
	UserRating          int     `json:"userRating"`
	RatingRevisionCount int     `json:"countRatingDecision,omitempty"`
}

// Validate checks the entry invariants
func (e WatchedEntry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("watched entry requires an id")
	}
	if err := ValidateRating(e.UserRating); err != nil {
		return err
	}
	if math.IsNaN(e.IMDbRating) || math.IsInf(e.IMDbRating, 0) {
		return fmt.Errorf("imdb rating must be a finite number, got %v", e.IMDbRating)
	}
	if e.RatingRevisionCount < 0 {
		return fmt.Errorf("rating revision count must not be negative, got %d", e.RatingRevisionCount)
	}
	return nil
}

// ValidateRating checks that a user rating is within bounds
func ValidateRating(rating int) error {
	if rating < MinUserRating || rating > MaxUserRating {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidRating, rating, MinUserRating, MaxUserRating)
	}
	return nil
}
