package controllers

import (
	"fmt"
	"sync"

	"github.com/amaumene/popcorn/internal/models"
	"github.com/amaumene/popcorn/internal/stats"
	"github.com/sirupsen/logrus"
)

// Browser coordinates one user session: the query, the open movie and its
// rating draft, and the watched list.
type Browser struct {
	search  *SearchController
	detail  *DetailController
	watched *WatchedController
	logger  *logrus.Logger

	mu       sync.Mutex
	query    string
	selected string
	draft    RatingDraft
}

// NewBrowser creates a session over the given controllers
func NewBrowser(search *SearchController, detail *DetailController, watched *WatchedController, logger *logrus.Logger) *Browser {
	return &Browser{
		search:  search,
		detail:  detail,
		watched: watched,
		logger:  logger,
	}
}

// SetQuery stores q and starts its search cycle. The open movie is closed
// when the query reaches the network.
func (b *Browser) SetQuery(q string) *Task {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.query = q
	if b.search.Searchable(q) {
		b.closeMovieLocked()
	}
	return b.search.Search(q)
}

// Searchable reports whether q would reach the network
func (b *Browser) Searchable(q string) bool {
	return b.search.Searchable(q)
}

// Query returns the current query
func (b *Browser) Query() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query
}

// Select opens the movie with id. Selecting the open movie again closes it
// and returns a nil task.
func (b *Browser) Select(id string) *Task {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id == "" {
		return nil
	}
	if id == b.selected {
		b.closeMovieLocked()
		return nil
	}

	b.selected = id
	b.draft.Reset()
	return b.detail.Fetch(id)
}

// CloseMovie closes the open movie, if any
func (b *Browser) CloseMovie() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeMovieLocked()
}

func (b *Browser) closeMovieLocked() {
	if b.selected == "" {
		return
	}
	b.selected = ""
	b.draft.Reset()
	b.detail.Close()
}

// Selected returns the id of the open movie, empty when none
func (b *Browser) Selected() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selected
}

// Rate records rating for the open movie
func (b *Browser) Rate(rating int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.selected == "" {
		return models.ErrNothingSelected
	}
	if b.watched.IsWatched(b.selected) {
		return models.ErrAlreadyWatched
	}
	return b.draft.Set(rating)
}

// Draft returns the current rating and its revision count
func (b *Browser) Draft() (rating, revisions int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.draft.Rating(), b.draft.Revisions()
}

// AddWatched commits the open movie with its draft rating and closes it
func (b *Browser) AddWatched() (models.WatchedEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.selected == "" {
		return models.WatchedEntry{}, models.ErrNothingSelected
	}
	if b.watched.IsWatched(b.selected) {
		return models.WatchedEntry{}, models.ErrAlreadyWatched
	}

	state := b.detail.State()
	detail, ok := state.Detail()
	if !ok || state.ID() != b.selected {
		return models.WatchedEntry{}, models.ErrDetailNotLoaded
	}

	entry, err := b.draft.Entry(detail)
	if err != nil {
		return models.WatchedEntry{}, fmt.Errorf("failed to build watched entry: %w", err)
	}
	if err := b.watched.Add(entry); err != nil {
		return models.WatchedEntry{}, err
	}

	b.closeMovieLocked()
	return entry, nil
}

// RemoveWatched removes id from the watched list
func (b *Browser) RemoveWatched(id string) {
	b.watched.Remove(id)
}

// Watched returns the watched list
func (b *Browser) Watched() []models.WatchedEntry {
	return b.watched.List()
}

// WatchedRating returns the user rating of id when it is already watched
func (b *Browser) WatchedRating(id string) (int, bool) {
	entry, ok := b.watched.Get(id)
	if !ok {
		return 0, false
	}
	return entry.UserRating, true
}

// Summary returns the statistics of the watched list
func (b *Browser) Summary() stats.Summary {
	return stats.Summarize(b.watched.List())
}

func (b *Browser) SearchState() models.RequestState {
	return b.search.State()
}

func (b *Browser) DetailState() models.DetailState {
	return b.detail.State()
}

// ResultCount returns the number of results of the current search
func (b *Browser) ResultCount() int {
	return len(b.search.State().Results())
}

// SubscribeSearch forwards search state transitions to fn
func (b *Browser) SubscribeSearch(fn func(models.RequestState)) (unsubscribe func()) {
	return b.search.Subscribe(fn)
}

// Close cancels every pending cycle of the session
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.search.Close()
	b.closeMovieLocked()
	b.logger.Debug("Session closed")
}
