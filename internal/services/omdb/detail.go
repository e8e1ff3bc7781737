package omdb

import (
	"context"
	"fmt"
	"net/url"

	"github.com/amaumene/popcorn/internal/models"
	"github.com/amaumene/popcorn/internal/utils"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DetailResponse represents the JSON body of an OMDb "i=" query
type DetailResponse struct {
	IMDbID     string `json:"imdbID"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Poster     string `json:"Poster"`
	Runtime    string `json:"Runtime"` // e.g. "148 min"
	IMDbRating string `json:"imdbRating"`
	Plot       string `json:"Plot"`
	Released   string `json:"Released"`
	Actors     string `json:"Actors"`
	Director   string `json:"Director"`
	Genre      string `json:"Genre"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

// GetDetail fetches the full record for an IMDb id.
// Successful lookups are cached for the configured TTL.
func (c *Client) GetDetail(ctx context.Context, id string) (*models.MovieDetail, error) {
	ctx, span := c.tracer.Start(ctx, "omdb.GetDetail", trace.WithAttributes(
		attribute.String("omdb.imdb_id", id),
	))
	defer span.End()

	if c.details != nil {
		if cached, ok := c.details.Get(id); ok {
			span.SetAttributes(attribute.Bool("omdb.cache_hit", true))
			detail := cached.(models.MovieDetail)
			return &detail, nil
		}
	}

	c.logger.WithField("imdb_id", id).Debug("Fetching OMDb details")

	params := url.Values{}
	params.Set("i", id)

	var response DetailResponse
	if err := c.get(ctx, params, &response); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "detail fetch failed")
		return nil, fmt.Errorf("detail %q failed: %w", id, err)
	}

	if notFound(response.Response) {
		return nil, fmt.Errorf("detail %q: %w: %s", id, models.ErrNotFound, response.Error)
	}

	detail := convertDetail(id, response)
	if c.details != nil {
		c.details.Set(id, detail, cache.DefaultExpiration)
	}

	return &detail, nil
}

func convertDetail(id string, response DetailResponse) models.MovieDetail {
	if response.IMDbID != "" {
		id = response.IMDbID
	}
	return models.MovieDetail{
		ID:             id,
		Title:          response.Title,
		Year:           response.Year,
		PosterURL:      response.Poster,
		RuntimeMinutes: utils.ParseRuntimeMinutes(response.Runtime),
		IMDbRating:     utils.ParseRating(response.IMDbRating),
		Plot:           response.Plot,
		ReleaseDate:    response.Released,
		Actors:         response.Actors,
		Director:       response.Director,
		Genre:          response.Genre,
	}
}
