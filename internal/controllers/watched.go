package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/amaumene/popcorn/internal/models"
	"github.com/amaumene/popcorn/internal/storage"
	"github.com/sirupsen/logrus"
)

// WatchedKey is the storage key holding the JSON-encoded watched list
const WatchedKey = "watched"

// WatchedController owns the watched list and its persisted mirror.
// Every mutation is written through to storage before it returns.
type WatchedController struct {
	store   storage.Store
	metrics *Metrics
	logger  *logrus.Logger

	mu      sync.RWMutex
	entries []models.WatchedEntry
}

// NewWatchedController creates the controller and rehydrates it from storage
func NewWatchedController(store storage.Store, metrics *Metrics, logger *logrus.Logger) *WatchedController {
	c := &WatchedController{
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
	c.Load()
	return c
}

// Load re-reads the persisted list. A missing or malformed document yields an empty list.
func (c *WatchedController) Load() []models.WatchedEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = c.read()
	c.metrics.watchedCount(len(c.entries))
	return c.copyLocked()
}

func (c *WatchedController) read() []models.WatchedEntry {
	data, err := c.store.Get(WatchedKey)
	if errors.Is(err, storage.ErrNotFound) {
		return []models.WatchedEntry{}
	}
	if err != nil {
		c.logger.WithError(err).Error("Failed to read watched list, starting empty")
		return []models.WatchedEntry{}
	}

	var entries []models.WatchedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.WithError(err).Warn("Persisted watched list is malformed, starting empty")
		return []models.WatchedEntry{}
	}
	if entries == nil {
		entries = []models.WatchedEntry{}
	}

	c.logger.WithField("count", len(entries)).Debug("Watched list loaded")
	return entries
}

// Add appends entry and persists the list. Only an invalid entry is reported;
// persistence failures are logged and the in-memory list stays authoritative.
func (c *WatchedController) Add(entry models.WatchedEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid watched entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, entry)
	c.persistLocked()

	c.logger.WithFields(logrus.Fields{
		"imdb_id":     entry.ID,
		"title":       entry.Title,
		"user_rating": entry.UserRating,
	}).Info("Added movie to watched list")
	return nil
}

// Remove deletes the entry with id, if present, and persists the list
func (c *WatchedController) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := make([]models.WatchedEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		if entry.ID != id {
			kept = append(kept, entry)
		}
	}
	removed := len(c.entries) - len(kept)
	c.entries = kept
	c.persistLocked()

	c.logger.WithFields(logrus.Fields{
		"imdb_id": id,
		"removed": removed,
	}).Info("Removed movie from watched list")
}

// List returns a copy of the watched entries in insertion order
func (c *WatchedController) List() []models.WatchedEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copyLocked()
}

// Get returns the entry with id
func (c *WatchedController) Get(id string) (models.WatchedEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, entry := range c.entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return models.WatchedEntry{}, false
}

// IsWatched reports whether id is in the list
func (c *WatchedController) IsWatched(id string) bool {
	_, ok := c.Get(id)
	return ok
}

func (c *WatchedController) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *WatchedController) persistLocked() {
	c.metrics.watchedCount(len(c.entries))

	data, err := json.Marshal(c.entries)
	if err == nil {
		err = c.store.Put(WatchedKey, data)
	}
	if err != nil {
		c.metrics.persistenceFailed()
		c.logger.WithError(err).WithField("count", len(c.entries)).Error("Failed to persist watched list")
	}
}

func (c *WatchedController) copyLocked() []models.WatchedEntry {
	copied := make([]models.WatchedEntry, len(c.entries))
	copy(copied, c.entries)
	return copied
}
