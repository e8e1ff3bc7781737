package stats

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/amaumene/popcorn/internal/models"
)

// Summary holds the aggregate figures of a watched list
type Summary struct {
	Count             int     `json:"count"`
	AvgIMDbRating     float64 `json:"avgImdbRating"`
	AvgUserRating     float64 `json:"avgUserRating"`
	AvgRuntimeMinutes float64 `json:"avgRuntime"`
	HasData           bool    `json:"hasData"`
}

// Summarize computes arithmetic means over entries. An empty list yields a
// zero Summary with HasData false.
func Summarize(entries []models.WatchedEntry) Summary {
	if len(entries) == 0 {
		return Summary{}
	}

	var imdb, user, runtime float64
	for _, e := range entries {
		imdb += e.IMDbRating
		user += float64(e.UserRating)
		runtime += float64(e.RuntimeMinutes)
	}

	n := float64(len(entries))
	return Summary{
		Count:             len(entries),
		AvgIMDbRating:     imdb / n,
		AvgUserRating:     user / n,
		AvgRuntimeMinutes: runtime / n,
		HasData:           true,
	}
}

var printer = message.NewPrinter(language.English)

// Format renders v with two decimals
func Format(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// Formatted is the display form of a Summary
type Formatted struct {
	Count             string `json:"count"`
	AvgIMDbRating     string `json:"avgImdbRating"`
	AvgUserRating     string `json:"avgUserRating"`
	AvgRuntimeMinutes string `json:"avgRuntime"`
}

func (s Summary) Formatted() Formatted {
	return Formatted{
		Count:             printer.Sprintf("%d", s.Count),
		AvgIMDbRating:     Format(s.AvgIMDbRating),
		AvgUserRating:     Format(s.AvgUserRating),
		AvgRuntimeMinutes: Format(s.AvgRuntimeMinutes) + " min",
	}
}
