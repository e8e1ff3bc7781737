package controllers

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/amaumene/popcorn/internal/config"
	"github.com/amaumene/popcorn/internal/models"
	"github.com/sirupsen/logrus"
)

type movieSearcher interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

type listener[S any] struct {
	id int
	fn func(S)
}

// SearchController runs one search cycle per query and owns the resulting
// RequestState. Every transition happens under mu, so a cycle that lost the
// race against a newer query can never overwrite fresher state.
type SearchController struct {
	client    movieSearcher
	minLength int
	timeout   time.Duration
	metrics   *Metrics
	logger    *logrus.Logger

	mu        sync.Mutex
	state     models.RequestState
	current   *Task
	listeners []listener[models.RequestState]
	nextID    int
}

// NewSearchController creates a new search controller
func NewSearchController(client movieSearcher, cfg *config.Config, metrics *Metrics, logger *logrus.Logger) *SearchController {
	return &SearchController{
		client:    client,
		minLength: cfg.MinQueryLength,
		timeout:   cfg.RequestTimeout,
		metrics:   metrics,
		logger:    logger,
		state:     models.Idle(),
	}
}

// Searchable reports whether query is long enough to reach the network
func (c *SearchController) Searchable(query string) bool {
	return utf8.RuneCountInString(query) >= c.minLength
}

// Search starts a new cycle for query, cancelling the previous one first.
// Queries below the minimum length resolve immediately to an empty success.
func (c *SearchController) Search(query string) *Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelCurrentLocked()

	if !c.Searchable(query) {
		c.setStateLocked(models.Success(nil))
		c.metrics.searchOutcome(outcomeSkipped)
		return completedTask(query)
	}

	task := newTask(context.Background(), query, c.timeout)
	c.current = task
	c.setStateLocked(models.Loading())

	c.logger.WithFields(logrus.Fields{
		"task_id": task.ID,
		"query":   query,
	}).Debug("Starting search cycle")

	go c.run(task)
	return task
}

func (c *SearchController) run(task *Task) {
	defer task.finish()

	start := time.Now()
	results, err := c.client.Search(task.ctx, task.Query)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != task || task.Cancelled() || errors.Is(err, models.ErrCancelled) {
		c.logger.WithFields(logrus.Fields{
			"task_id": task.ID,
			"query":   task.Query,
		}).Debug("Discarding superseded search response")
		c.metrics.searchOutcome(outcomeCancelled)
		return
	}

	c.current = nil
	c.metrics.observeSearch(time.Since(start))

	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.metrics.searchOutcome(outcomeNotFound)
		} else {
			c.metrics.searchOutcome(outcomeFailure)
		}
		c.logger.WithError(err).WithFields(logrus.Fields{
			"task_id": task.ID,
			"query":   task.Query,
		}).Warn("Search failed")
		c.setStateLocked(models.Failure(models.FailureMessage(err)))
		return
	}

	c.metrics.searchOutcome(outcomeSuccess)
	c.logger.WithFields(logrus.Fields{
		"task_id": task.ID,
		"query":   task.Query,
		"count":   len(results),
	}).Info("Search completed")
	c.setStateLocked(models.Success(results))
}

// State returns the current request state
func (c *SearchController) State() models.RequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive every state transition in order.
// fn runs inside the transition and must not call back into the controller.
func (c *SearchController) Subscribe(fn func(models.RequestState)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listener[models.RequestState]{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.listeners = removeListener(c.listeners, id)
	}
}

// Close cancels the in-flight cycle, if any. The last applied state is kept.
func (c *SearchController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelCurrentLocked()
}

func (c *SearchController) cancelCurrentLocked() {
	if c.current == nil {
		return
	}
	c.logger.WithFields(logrus.Fields{
		"task_id": c.current.ID,
		"query":   c.current.Query,
	}).Debug("Cancelling search cycle")
	c.current.Cancel()
	c.current = nil
}

func (c *SearchController) setStateLocked(state models.RequestState) {
	c.state = state
	for _, l := range c.listeners {
		l.fn(state)
	}
}

func removeListener[S any](listeners []listener[S], id int) []listener[S] {
	kept := listeners[:0:0]
	for _, l := range listeners {
		if l.id != id {
			kept = append(kept, l)
		}
	}
	return kept
}
