package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/popcorn/internal/config"
	"github.com/amaumene/popcorn/internal/models"
	"github.com/amaumene/popcorn/internal/storage"
	"github.com/amaumene/popcorn/internal/utils"
)

type reply struct {
	results []models.SearchResult
	detail  *models.MovieDetail
	err     error
}

// fakeOMDb blocks every call until the test releases its query.
// It ignores the request context so tests control resolution order.
type fakeOMDb struct {
	mu      sync.Mutex
	calls   []string
	pending map[string]chan reply
}

func newFakeOMDb() *fakeOMDb {
	return &fakeOMDb{pending: map[string]chan reply{}}
}

func (f *fakeOMDb) channel(key string) chan reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.pending[key]
	if !ok {
		ch = make(chan reply, 1)
		f.pending[key] = ch
	}
	return ch
}

func (f *fakeOMDb) record(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)
}

func (f *fakeOMDb) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeOMDb) release(key string, r reply) {
	f.channel(key) <- r
}

func (f *fakeOMDb) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	f.record(query)
	r := <-f.channel(query)
	return r.results, r.err
}

func (f *fakeOMDb) GetDetail(ctx context.Context, id string) (*models.MovieDetail, error) {
	f.record(id)
	r := <-f.channel(id)
	return r.detail, r.err
}

// ctxOMDb resolves only when the request context ends, like a hung server
type ctxOMDb struct{}

func (ctxOMDb) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	<-ctx.Done()
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, fmt.Errorf("%w: %w", models.ErrCancelled, ctx.Err())
	}
	return nil, fmt.Errorf("%w: %w", models.ErrTransport, ctx.Err())
}

type failingStore struct{}

func (failingStore) Get(string) ([]byte, error) { return nil, storage.ErrNotFound }
func (failingStore) Put(string, []byte) error   { return errors.New("disk full") }
func (failingStore) Close() error               { return nil }

func testConfig() *config.Config {
	return &config.Config{
		MinQueryLength: 3,
		RequestTimeout: 5 * time.Second,
	}
}

func recordStates(c *SearchController) func() []models.RequestState {
	var mu sync.Mutex
	var states []models.RequestState
	c.Subscribe(func(s models.RequestState) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, s)
	})
	return func() []models.RequestState {
		mu.Lock()
		defer mu.Unlock()
		return append([]models.RequestState(nil), states...)
	}
}

func waitTask(t *testing.T, task *Task) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, task.Wait(ctx))
}

func waitCalls(t *testing.T, f *fakeOMDb, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(f.Calls()) >= n }, 2*time.Second, 5*time.Millisecond)
}

func TestSearchIdleLoadingSuccess(t *testing.T) {
	fake := newFakeOMDb()
	c := NewSearchController(fake, testConfig(), nil, utils.NewDiscardLogger())
	states := recordStates(c)

	assert.Equal(t, models.StatusIdle, c.State().Status())

	results := []models.SearchResult{
		{ID: "tt1", Title: "Interstellar", Year: "2014"},
		{ID: "tt2", Title: "Into the Wild", Year: "2007"},
	}
	task := c.Search("int")
	assert.True(t, c.State().IsLoading())

	fake.release("int", reply{results: results})
	waitTask(t, task)

	got := states()
	require.Len(t, got, 2)
	assert.True(t, got[0].Equal(models.Loading()))
	assert.True(t, got[1].Equal(models.Success(results)))
	assert.Equal(t, results, c.State().Results())
}

func TestSearchBelowThresholdSkipsNetwork(t *testing.T) {
	fake := newFakeOMDb()
	c := NewSearchController(fake, testConfig(), nil, utils.NewDiscardLogger())

	for _, q := range []string{"", "a", "ab", "éé"} {
		task := c.Search(q)
		waitTask(t, task)
		assert.Equal(t, models.StatusSuccess, c.State().Status(), q)
		assert.Empty(t, c.State().Results(), q)
	}
	assert.Empty(t, fake.Calls())
}

func TestSearchSupersededResponseIsDiscarded(t *testing.T) {
	fake := newFakeOMDb()
	c := NewSearchController(fake, testConfig(), nil, utils.NewDiscardLogger())
	states := recordStates(c)

	first := c.Search("interstellar")
	waitCalls(t, fake, 1)
	second := c.Search("matrix")
	waitCalls(t, fake, 2)

	assert.True(t, first.Cancelled())
	assert.False(t, second.Cancelled())

	matrix := []models.SearchResult{{ID: "tt0133093", Title: "The Matrix", Year: "1999"}}
	fake.release("matrix", reply{results: matrix})
	waitTask(t, second)
	fake.release("interstellar", reply{results: []models.SearchResult{{ID: "tt0816692", Title: "Interstellar"}}})
	waitTask(t, first)

	assert.True(t, c.State().Equal(models.Success(matrix)))
	for _, s := range states() {
		for _, r := range s.Results() {
			assert.NotEqual(t, "tt0816692", r.ID, "stale result leaked into state")
		}
	}
}

func TestSearchNotFound(t *testing.T) {
	fake := newFakeOMDb()
	c := NewSearchController(fake, testConfig(), nil, utils.NewDiscardLogger())

	task := c.Search("zzzzqqq")
	fake.release("zzzzqqq", reply{err: fmt.Errorf("search failed: %w", models.ErrNotFound)})
	waitTask(t, task)

	assert.True(t, c.State().Equal(models.Failure("not found")))
}

func TestSearchTransportFailure(t *testing.T) {
	fake := newFakeOMDb()
	c := NewSearchController(fake, testConfig(), nil, utils.NewDiscardLogger())

	task := c.Search("matrix")
	fake.release("matrix", reply{err: fmt.Errorf("%w: connection refused", models.ErrTransport)})
	waitTask(t, task)

	assert.True(t, c.State().Equal(models.Failure("transport error")))
}

func TestSearchTimeoutBecomesFailure(t *testing.T) {
	cfg := testConfig()
	cfg.RequestTimeout = 20 * time.Millisecond
	c := NewSearchController(ctxOMDb{}, cfg, nil, utils.NewDiscardLogger())

	task := c.Search("matrix")
	waitTask(t, task)

	assert.True(t, c.State().Equal(models.Failure("transport error")))
}

func TestSearchCloseCancelsWithoutStateChange(t *testing.T) {
	c := NewSearchController(ctxOMDb{}, testConfig(), nil, utils.NewDiscardLogger())
	states := recordStates(c)

	task := c.Search("matrix")
	c.Close()
	waitTask(t, task)

	assert.True(t, task.Cancelled())
	assert.True(t, c.State().IsLoading())
	assert.Len(t, states(), 1)

	// cancelling again, and after completion, is harmless
	task.Cancel()
	c.Close()
}

func TestSearchUnsubscribe(t *testing.T) {
	c := NewSearchController(newFakeOMDb(), testConfig(), nil, utils.NewDiscardLogger())

	calls := 0
	unsubscribe := c.Subscribe(func(models.RequestState) { calls++ })
	waitTask(t, c.Search("a"))
	unsubscribe()
	waitTask(t, c.Search("b"))

	assert.Equal(t, 1, calls)
}

func TestSearchMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	fake := newFakeOMDb()
	c := NewSearchController(fake, testConfig(), metrics, utils.NewDiscardLogger())

	waitTask(t, c.Search("a"))

	task := c.Search("matrix")
	fake.release("matrix", reply{results: []models.SearchResult{{ID: "tt1"}}})
	waitTask(t, task)

	task = c.Search("nothing")
	fake.release("nothing", reply{err: models.ErrNotFound})
	waitTask(t, task)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SearchCycles.WithLabelValues(outcomeSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SearchCycles.WithLabelValues(outcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SearchCycles.WithLabelValues(outcomeNotFound)))

	families, err := reg.Gather()
	require.NoError(t, err)
	var observed uint64
	for _, mf := range families {
		if mf.GetName() == "popcorn_search_duration_seconds" {
			observed = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(2), observed)
}

func TestTaskLifecycle(t *testing.T) {
	task := newTask(context.Background(), "q", time.Second)
	assert.False(t, task.Cancelled())
	task.Cancel()
	task.Cancel()
	assert.True(t, task.Cancelled())

	done := completedTask("q")
	waitTask(t, done)
	assert.False(t, done.Cancelled())
	assert.NotEqual(t, task.ID, done.ID)
}

func TestDetailFetchAndStaleness(t *testing.T) {
	fake := newFakeOMDb()
	c := NewDetailController(fake, testConfig(), nil, utils.NewDiscardLogger())

	first := c.Fetch("tt1")
	waitCalls(t, fake, 1)
	second := c.Fetch("tt2")
	waitCalls(t, fake, 2)
	assert.Equal(t, "tt2", c.State().ID())

	fake.release("tt2", reply{detail: &models.MovieDetail{ID: "tt2", Title: "Second"}})
	waitTask(t, second)
	fake.release("tt1", reply{detail: &models.MovieDetail{ID: "tt1", Title: "First"}})
	waitTask(t, first)

	detail, ok := c.State().Detail()
	require.True(t, ok)
	assert.Equal(t, "Second", detail.Title)
	assert.Equal(t, "tt2", c.State().ID())
}

func TestDetailFailureAndClose(t *testing.T) {
	fake := newFakeOMDb()
	c := NewDetailController(fake, testConfig(), nil, utils.NewDiscardLogger())

	task := c.Fetch("tt9")
	fake.release("tt9", reply{err: models.ErrNotFound})
	waitTask(t, task)

	assert.Equal(t, models.StatusFailure, c.State().Status())
	assert.Equal(t, "not found", c.State().Message())
	assert.Equal(t, "tt9", c.State().ID())

	c.Close()
	assert.Equal(t, models.StatusIdle, c.State().Status())
}

func watchedEntry(id string, rating int) models.WatchedEntry {
	return models.WatchedEntry{
		ID:             id,
		Title:          "Movie " + id,
		Year:           "2000",
		IMDbRating:     7.5,
		RuntimeMinutes: 120,
		UserRating:     rating,
	}
}

func persisted(t *testing.T, store storage.Store) []models.WatchedEntry {
	t.Helper()
	data, err := store.Get(WatchedKey)
	require.NoError(t, err)
	var entries []models.WatchedEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	return entries
}

func TestWatchedAddThenRemovePersistsEmpty(t *testing.T) {
	store := storage.NewMemoryStore()
	c := NewWatchedController(store, nil, utils.NewDiscardLogger())

	require.NoError(t, c.Add(watchedEntry("tt1", 8)))
	assert.Len(t, persisted(t, store), 1)

	c.Remove("tt1")
	assert.Empty(t, c.List())

	data, err := store.Get(WatchedKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestWatchedRoundTripThroughFreshStore(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	c := NewWatchedController(store, nil, utils.NewDiscardLogger())
	entry := watchedEntry("tt0816692", 9)
	entry.RatingRevisionCount = 2
	require.NoError(t, c.Add(entry))
	require.NoError(t, c.Add(watchedEntry("tt0133093", 7)))

	fresh := NewWatchedController(store, nil, utils.NewDiscardLogger())
	assert.Equal(t, c.List(), fresh.List())
	got, ok := fresh.Get("tt0816692")
	require.True(t, ok)
	assert.Equal(t, 2, got.RatingRevisionCount)

	fresh.Remove("tt0816692")
	again := NewWatchedController(store, nil, utils.NewDiscardLogger())
	assert.False(t, again.IsWatched("tt0816692"))
	assert.True(t, again.IsWatched("tt0133093"))
}

func TestWatchedRemoveIsIdempotent(t *testing.T) {
	store := storage.NewMemoryStore()
	c := NewWatchedController(store, nil, utils.NewDiscardLogger())
	require.NoError(t, c.Add(watchedEntry("tt1", 8)))
	require.NoError(t, c.Add(watchedEntry("tt2", 5)))

	c.Remove("tt1")
	once := persisted(t, store)
	c.Remove("tt1")
	c.Remove("missing")

	assert.Equal(t, once, persisted(t, store))
	assert.Equal(t, 1, c.Len())
}

func TestWatchedLoadTolerance(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		c := NewWatchedController(storage.NewMemoryStore(), nil, utils.NewDiscardLogger())
		assert.NotNil(t, c.List())
		assert.Empty(t, c.List())
	})

	t.Run("malformed", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Put(WatchedKey, []byte(`{not json`)))
		c := NewWatchedController(store, nil, utils.NewDiscardLogger())
		assert.Empty(t, c.List())
	})

	t.Run("null", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Put(WatchedKey, []byte(`null`)))
		c := NewWatchedController(store, nil, utils.NewDiscardLogger())
		assert.NotNil(t, c.List())
	})

	t.Run("legacy entry without revision count", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Put(WatchedKey, []byte(`[{"imdbID":"tt1","title":"A","poster":"p","year":"1999","imdbRating":8.1,"runtime":136,"userRating":9}]`)))
		c := NewWatchedController(store, nil, utils.NewDiscardLogger())
		require.Equal(t, 1, c.Len())
		got, _ := c.Get("tt1")
		assert.Equal(t, 136, got.RuntimeMinutes)
		assert.Equal(t, 0, got.RatingRevisionCount)
	})
}

func TestWatchedRejectsInvalidEntry(t *testing.T) {
	c := NewWatchedController(storage.NewMemoryStore(), nil, utils.NewDiscardLogger())

	err := c.Add(watchedEntry("tt1", 11))
	assert.ErrorIs(t, err, models.ErrInvalidRating)
	assert.Error(t, c.Add(watchedEntry("", 5)))
	assert.Zero(t, c.Len())
}

func TestWatchedNonFiniteRatingDoesNotBlockPersistence(t *testing.T) {
	store := storage.NewMemoryStore()
	c := NewWatchedController(store, nil, utils.NewDiscardLogger())

	bad := watchedEntry("tt1", 8)
	bad.IMDbRating = math.NaN()
	assert.Error(t, c.Add(bad))
	bad.IMDbRating = math.Inf(1)
	assert.Error(t, c.Add(bad))

	require.NoError(t, c.Add(watchedEntry("tt2", 7)))

	fresh := NewWatchedController(store, nil, utils.NewDiscardLogger())
	assert.Equal(t, c.List(), fresh.List())
	assert.Equal(t, 1, fresh.Len())
}

func TestWatchedPersistenceFailureIsSwallowed(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	c := NewWatchedController(failingStore{}, metrics, utils.NewDiscardLogger())

	assert.NoError(t, c.Add(watchedEntry("tt1", 8)))
	assert.True(t, c.IsWatched("tt1"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PersistenceFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WatchedEntries))
}

func TestRatingDraft(t *testing.T) {
	var d RatingDraft

	assert.ErrorIs(t, d.Set(0), models.ErrInvalidRating)
	assert.Zero(t, d.Revisions())

	require.NoError(t, d.Set(6))
	require.NoError(t, d.Set(8))
	assert.Equal(t, 8, d.Rating())
	assert.Equal(t, 2, d.Revisions())

	// repeating the current rating is not a revision
	require.NoError(t, d.Set(8))
	require.NoError(t, d.Set(8))
	assert.Equal(t, 2, d.Revisions())

	entry, err := d.Entry(models.MovieDetail{ID: "tt1", Title: "A", RuntimeMinutes: 148, IMDbRating: 8.8})
	require.NoError(t, err)
	assert.Equal(t, models.WatchedEntry{
		ID: "tt1", Title: "A", RuntimeMinutes: 148, IMDbRating: 8.8, UserRating: 8, RatingRevisionCount: 2,
	}, entry)

	d.Reset()
	_, err = d.Entry(models.MovieDetail{ID: "tt1"})
	assert.ErrorIs(t, err, models.ErrInvalidRating)
}

func newTestBrowser(fake *fakeOMDb, store storage.Store) *Browser {
	logger := utils.NewDiscardLogger()
	cfg := testConfig()
	return NewBrowser(
		NewSearchController(fake, cfg, nil, logger),
		NewDetailController(fake, cfg, nil, logger),
		NewWatchedController(store, nil, logger),
		logger,
	)
}

func TestBrowserSelectToggles(t *testing.T) {
	fake := newFakeOMDb()
	b := newTestBrowser(fake, storage.NewMemoryStore())
	defer b.Close()

	task := b.Select("tt1")
	require.NotNil(t, task)
	fake.release("tt1", reply{detail: &models.MovieDetail{ID: "tt1"}})
	waitTask(t, task)
	assert.Equal(t, "tt1", b.Selected())

	assert.Nil(t, b.Select("tt1"))
	assert.Empty(t, b.Selected())
	assert.Equal(t, models.StatusIdle, b.DetailState().Status())
}

func TestBrowserQueryClosesMovieOnlyWhenSearching(t *testing.T) {
	fake := newFakeOMDb()
	b := newTestBrowser(fake, storage.NewMemoryStore())
	defer b.Close()

	task := b.Select("tt1")
	fake.release("tt1", reply{detail: &models.MovieDetail{ID: "tt1"}})
	waitTask(t, task)

	waitTask(t, b.SetQuery("ma"))
	assert.Equal(t, "tt1", b.Selected())
	assert.Equal(t, "ma", b.Query())

	search := b.SetQuery("matrix")
	assert.Empty(t, b.Selected())
	fake.release("matrix", reply{results: []models.SearchResult{{ID: "tt0133093"}}})
	waitTask(t, search)
	assert.Equal(t, 1, b.ResultCount())
}

func TestBrowserAddWatchedFlow(t *testing.T) {
	fake := newFakeOMDb()
	store := storage.NewMemoryStore()
	b := newTestBrowser(fake, store)
	defer b.Close()

	_, err := b.AddWatched()
	assert.ErrorIs(t, err, models.ErrNothingSelected)
	assert.ErrorIs(t, b.Rate(5), models.ErrNothingSelected)

	task := b.Select("tt0816692")
	_, err = b.AddWatched()
	assert.ErrorIs(t, err, models.ErrDetailNotLoaded)

	fake.release("tt0816692", reply{detail: &models.MovieDetail{
		ID: "tt0816692", Title: "Interstellar", Year: "2014", RuntimeMinutes: 169, IMDbRating: 8.7,
	}})
	waitTask(t, task)

	_, err = b.AddWatched()
	assert.ErrorIs(t, err, models.ErrInvalidRating)

	require.NoError(t, b.Rate(7))
	require.NoError(t, b.Rate(9))
	entry, err := b.AddWatched()
	require.NoError(t, err)
	assert.Equal(t, 9, entry.UserRating)
	assert.Equal(t, 2, entry.RatingRevisionCount)
	assert.Equal(t, 169, entry.RuntimeMinutes)
	assert.Empty(t, b.Selected())

	rating, ok := b.WatchedRating("tt0816692")
	assert.True(t, ok)
	assert.Equal(t, 9, rating)
	assert.Len(t, persisted(t, store), 1)

	summary := b.Summary()
	assert.Equal(t, 1, summary.Count)
	assert.InDelta(t, 8.7, summary.AvgIMDbRating, 1e-9)

	task = b.Select("tt0816692")
	fake.release("tt0816692", reply{detail: &models.MovieDetail{ID: "tt0816692", Title: "Interstellar"}})
	waitTask(t, task)
	assert.ErrorIs(t, b.Rate(3), models.ErrAlreadyWatched)
	_, err = b.AddWatched()
	assert.ErrorIs(t, err, models.ErrAlreadyWatched)

	b.RemoveWatched("tt0816692")
	assert.Empty(t, b.Watched())
	assert.False(t, b.Summary().HasData)
}
