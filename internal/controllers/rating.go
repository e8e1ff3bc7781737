package controllers

import (
	"github.com/amaumene/popcorn/internal/models"
)

// RatingDraft tracks the rating chosen for the open movie before it is
// committed. Not safe for concurrent use; Browser serializes access.
type RatingDraft struct {
	rating    int
	revisions int
}

// Set records a rating from the widget. Only an actual change counts as a
// revision; repeating the current rating is a no-op.
func (d *RatingDraft) Set(rating int) error {
	if err := models.ValidateRating(rating); err != nil {
		return err
	}
	if rating == d.rating {
		return nil
	}
	d.rating = rating
	d.revisions++
	return nil
}

// Rating returns the current rating, 0 when none was chosen
func (d *RatingDraft) Rating() int { return d.rating }

// Revisions returns how many times the rating was set
func (d *RatingDraft) Revisions() int { return d.revisions }

// Reset clears the draft when the selection changes
func (d *RatingDraft) Reset() {
	d.rating = 0
	d.revisions = 0
}

// Entry builds the watched entry committing this draft for detail
func (d *RatingDraft) Entry(detail models.MovieDetail) (models.WatchedEntry, error) {
	entry := models.WatchedEntry{
		ID:                  detail.ID,
		Title:               detail.Title,
		PosterURL:           detail.PosterURL,
		Year:                detail.Year,
		IMDbRating:          detail.IMDbRating,
		RuntimeMinutes:      detail.RuntimeMinutes,
		UserRating:          d.rating,
		RatingRevisionCount: d.revisions,
	}
	if err := entry.Validate(); err != nil {
		return models.WatchedEntry{}, err
	}
	return entry, nil
}
