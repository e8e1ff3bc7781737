package omdb

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/amaumene/popcorn/internal/models"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SearchResponse represents the JSON body of an OMDb "s=" query
type SearchResponse struct {
	Search       []SearchItem `json:"Search"`
	TotalResults string       `json:"totalResults"`
	Response     string       `json:"Response"`
	Error        string       `json:"Error"`
}

// SearchItem represents a single search hit
type SearchItem struct {
	IMDbID string `json:"imdbID"`
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

// notFound reports the service's "Response": "False" sentinel
func notFound(response string) bool {
	return strings.EqualFold(response, "False")
}

// Search queries OMDb for titles matching query
func (c *Client) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	ctx, span := c.tracer.Start(ctx, "omdb.Search", trace.WithAttributes(
		attribute.String("omdb.query", query),
	))
	defer span.End()

	c.logger.WithField("query", query).Debug("Performing OMDb search")

	params := url.Values{}
	params.Set("s", query)

	var response SearchResponse
	if err := c.get(ctx, params, &response); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, fmt.Errorf("search %q failed: %w", query, err)
	}

	if notFound(response.Response) {
		span.SetAttributes(attribute.Bool("omdb.not_found", true))
		return nil, fmt.Errorf("search %q: %w: %s", query, models.ErrNotFound, response.Error)
	}

	results := convertResults(response.Search)
	span.SetAttributes(attribute.Int("omdb.results", len(results)))

	c.logger.WithFields(logrus.Fields{
		"query": query,
		"count": len(results),
	}).Debug("OMDb search completed")

	return results, nil
}

// convertResults converts OMDb items to SearchResult format
func convertResults(items []SearchItem) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(items))
	for _, item := range items {
		results = append(results, models.SearchResult{
			ID:        item.IMDbID,
			Title:     item.Title,
			Year:      item.Year,
			PosterURL: item.Poster,
		})
	}
	return results
}
