package controllers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/amaumene/popcorn/internal/config"
	"github.com/amaumene/popcorn/internal/models"
	"github.com/sirupsen/logrus"
)

type detailFetcher interface {
	GetDetail(ctx context.Context, id string) (*models.MovieDetail, error)
}

// DetailController fetches the detail of the selected movie.
// A new selection cancels the pending fetch with the same staleness rule as search.
type DetailController struct {
	client  detailFetcher
	timeout time.Duration
	metrics *Metrics
	logger  *logrus.Logger

	mu        sync.Mutex
	state     models.DetailState
	current   *Task
	listeners []listener[models.DetailState]
	nextID    int
}

// NewDetailController creates a new detail controller
func NewDetailController(client detailFetcher, cfg *config.Config, metrics *Metrics, logger *logrus.Logger) *DetailController {
	return &DetailController{
		client:  client,
		timeout: cfg.RequestTimeout,
		metrics: metrics,
		logger:  logger,
		state:   models.DetailIdle(),
	}
}

// Fetch selects id and loads its detail, superseding any pending fetch
func (c *DetailController) Fetch(id string) *Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelCurrentLocked()

	task := newTask(context.Background(), id, c.timeout)
	c.current = task
	c.setStateLocked(models.DetailLoading(id))

	go c.run(task)
	return task
}

func (c *DetailController) run(task *Task) {
	defer task.finish()

	detail, err := c.client.GetDetail(task.ctx, task.Query)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != task || task.Cancelled() || errors.Is(err, models.ErrCancelled) {
		c.metrics.detailOutcome(outcomeCancelled)
		return
	}
	c.current = nil

	if err != nil {
		c.metrics.detailOutcome(outcomeFailure)
		c.logger.WithError(err).WithField("imdb_id", task.Query).Warn("Failed to fetch movie details")
		c.setStateLocked(models.DetailFailure(task.Query, models.FailureMessage(err)))
		return
	}

	c.metrics.detailOutcome(outcomeSuccess)
	c.setStateLocked(models.DetailSuccess(task.Query, *detail))
}

// Close deselects the movie and cancels a pending fetch
func (c *DetailController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelCurrentLocked()
	if c.state.Status() != models.StatusIdle {
		c.setStateLocked(models.DetailIdle())
	}
}

// State returns the current detail state
func (c *DetailController) State() models.DetailState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive every state transition in order.
// fn runs inside the transition and must not call back into the controller.
func (c *DetailController) Subscribe(fn func(models.DetailState)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listener[models.DetailState]{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.listeners = removeListener(c.listeners, id)
	}
}

func (c *DetailController) cancelCurrentLocked() {
	if c.current == nil {
		return
	}
	c.current.Cancel()
	c.current = nil
}

func (c *DetailController) setStateLocked(state models.DetailState) {
	c.state = state
	for _, l := range c.listeners {
		l.fn(state)
	}
}
