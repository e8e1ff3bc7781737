package stats

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/amaumene/popcorn/internal/models"
)

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(nil)
	assert.Equal(t, Summary{}, got)
	assert.False(t, got.HasData)

	got = Summarize([]models.WatchedEntry{})
	assert.Equal(t, Summary{}, got)
}

func TestSummarize(t *testing.T) {
	entries := []models.WatchedEntry{
		{ID: "tt1", IMDbRating: 8.8, UserRating: 9, RuntimeMinutes: 148},
		{ID: "tt2", IMDbRating: 7.2, UserRating: 6, RuntimeMinutes: 100},
	}

	got := Summarize(entries)
	want := Summary{
		Count:             2,
		AvgIMDbRating:     8.0,
		AvgUserRating:     7.5,
		AvgRuntimeMinutes: 124,
		HasData:           true,
	}

	opt := cmp.Comparer(func(a, b float64) bool {
		d := a - b
		return d < 1e-9 && d > -1e-9
	})
	if diff := cmp.Diff(want, got, opt); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "8.00", Format(8))
	assert.Equal(t, "7.33", Format(22.0/3))
	assert.Equal(t, "1,234.50", Format(1234.5))
	assert.Equal(t, "0.00", Format(0))
}

func TestSummaryFormatted(t *testing.T) {
	s := Summary{Count: 3, AvgIMDbRating: 7.5, AvgUserRating: 8, AvgRuntimeMinutes: 120.25, HasData: true}

	assert.Equal(t, Formatted{
		Count:             "3",
		AvgIMDbRating:     "7.50",
		AvgUserRating:     "8.00",
		AvgRuntimeMinutes: "120.25 min",
	}, s.Formatted())
}
