package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/amaumene/popcorn/internal/controllers"
	"github.com/amaumene/popcorn/internal/models"
	"github.com/amaumene/popcorn/internal/services/omdb"
	"github.com/amaumene/popcorn/internal/stats"
	"github.com/amaumene/popcorn/internal/utils"
	"github.com/spf13/cobra"
)

// waitFor blocks until task settles, bounded a little past the request timeout
func waitFor(task *controllers.Task, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout+5*time.Second)
	defer cancel()
	return task.Wait(ctx)
}

func newSearchCmd() *cobra.Command {
	var rank bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search movies by title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := session(cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()

			query := utils.NormalizeQuery(args[0])
			if !a.Browser.Searchable(query) {
				return fmt.Errorf("query must be at least %d characters", a.Config.MinQueryLength)
			}
			if err := waitFor(a.Browser.SetQuery(query), a.Config.RequestTimeout); err != nil {
				return err
			}

			state := a.Browser.SearchState()
			if state.Status() == models.StatusFailure {
				return errors.New(state.Message())
			}

			results := state.Results()
			if rank {
				results = omdb.RankByTitle(query, results)
			}
			printResults(cmd.OutOrStdout(), results, a.Browser)
			return nil
		},
	}
	cmd.Flags().BoolVar(&rank, "rank", false, "order results by closeness to the query")
	return cmd
}

func printResults(out io.Writer, results []models.SearchResult, browser *controllers.Browser) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tYEAR\tRATED")
	for _, r := range results {
		rated := ""
		if rating, ok := browser.WatchedRating(r.ID); ok {
			rated = fmt.Sprintf("%d/10", rating)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Title, r.Year, rated)
	}
	w.Flush()
	fmt.Fprintf(out, "%d results\n", len(results))
}

func newDetailCmd() *cobra.Command {
	var rating int

	cmd := &cobra.Command{
		Use:   "detail <imdb-id>",
		Short: "Show a movie, optionally rating it into the watched list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := session(cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()

			id := utils.NormalizeQuery(args[0])
			if id == "" {
				return errors.New("imdb id is required")
			}
			if err := waitFor(a.Browser.Select(id), a.Config.RequestTimeout); err != nil {
				return err
			}

			state := a.Browser.DetailState()
			detail, ok := state.Detail()
			if !ok {
				return errors.New(state.Message())
			}
			printDetail(cmd.OutOrStdout(), detail)

			if watched, ok := a.Browser.WatchedRating(detail.ID); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "You rated this movie %d/10\n", watched)
				return nil
			}
			if rating == 0 {
				return nil
			}

			if err := a.Browser.Rate(rating); err != nil {
				return err
			}
			entry, err := a.Browser.AddWatched()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to watched list with %d/10\n", entry.Title, entry.UserRating)
			return nil
		},
	}
	cmd.Flags().IntVar(&rating, "rate", 0, "rate the movie 1-10 and add it to the watched list")
	return cmd
}

func printDetail(out io.Writer, d models.MovieDetail) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Title\t%s (%s)\n", d.Title, d.Year)
	fmt.Fprintf(w, "Released\t%s\n", d.ReleaseDate)
	fmt.Fprintf(w, "Runtime\t%d min\n", d.RuntimeMinutes)
	fmt.Fprintf(w, "IMDb\t%s\n", stats.Format(d.IMDbRating))
	fmt.Fprintf(w, "Genre\t%s\n", d.Genre)
	fmt.Fprintf(w, "Director\t%s\n", d.Director)
	fmt.Fprintf(w, "Starring\t%s\n", d.Actors)
	w.Flush()
	if d.Plot != "" {
		fmt.Fprintf(out, "\n%s\n", d.Plot)
	}
}

func newWatchedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watched",
		Short: "Manage the watched list",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List watched movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := session(cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()

			printWatched(cmd.OutOrStdout(), a.Browser.Watched())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <imdb-id>",
		Short: "Remove a movie from the watched list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := session(cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()

			a.Browser.RemoveWatched(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func printWatched(out io.Writer, entries []models.WatchedEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tYEAR\tIMDB\tYOURS\tRUNTIME")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d min\n", e.ID, e.Title, e.Year, stats.Format(e.IMDbRating), e.UserRating, e.RuntimeMinutes)
	}
	w.Flush()
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show watched list statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := session(cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()

			printStats(cmd.OutOrStdout(), a.Browser.Summary())
			return nil
		},
	}
}

func printStats(out io.Writer, s stats.Summary) {
	if !s.HasData {
		fmt.Fprintln(out, "No watched movies yet")
		return
	}
	f := s.Formatted()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Movies\t%s\n", f.Count)
	fmt.Fprintf(w, "Avg IMDb rating\t%s\n", f.AvgIMDbRating)
	fmt.Fprintf(w, "Avg your rating\t%s\n", f.AvgUserRating)
	fmt.Fprintf(w, "Avg runtime\t%s\n", f.AvgRuntimeMinutes)
	w.Flush()
}
