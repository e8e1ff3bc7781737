package omdb

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/amaumene/popcorn/internal/models"
)

// RankByTitle returns results ordered by edit distance between the query
// and each title, closest first. Ties keep the service order.
func RankByTitle(query string, results []models.SearchResult) []models.SearchResult {
	ranked := make([]models.SearchResult, len(results))
	copy(ranked, results)

	query = strings.ToLower(query)
	distances := make(map[string]int, len(ranked))
	for _, r := range ranked {
		distances[r.ID] = levenshtein.ComputeDistance(query, strings.ToLower(r.Title))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return distances[ranked[i].ID] < distances[ranked[j].ID]
	})

	return ranked
}
