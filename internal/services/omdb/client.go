package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/amaumene/popcorn/internal/config"
	"github.com/amaumene/popcorn/internal/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const tracerName = "github.com/amaumene/popcorn/internal/services/omdb"

// Client wraps direct OMDb API HTTP calls
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	details    *cache.Cache
	tracer     trace.Tracer
	logger     *logrus.Logger
}

// NewClient creates a new OMDb client with direct HTTP calls
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.OMDbURL == "" {
		return nil, fmt.Errorf("OMDb URL is required")
	}
	if cfg.OMDbAPIKey == "" {
		return nil, fmt.Errorf("OMDb API key is required")
	}
	if _, err := url.Parse(cfg.OMDbURL); err != nil {
		return nil, fmt.Errorf("invalid OMDb URL: %w", err)
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		if int(cfg.RequestsPerSecond) > burst {
			burst = int(cfg.RequestsPerSecond)
		}
	}

	// A zero TTL disables the detail cache; go-cache would never expire it
	var details *cache.Cache
	if cfg.DetailCacheTTL > 0 {
		details = cache.New(cfg.DetailCacheTTL, 2*cfg.DetailCacheTTL)
	}

	return &Client{
		baseURL: cfg.OMDbURL,
		apiKey:  cfg.OMDbAPIKey,
		// Per-request deadlines come from the caller's context; this is a backstop
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:    rate.NewLimiter(limit, burst),
		maxRetries: cfg.MaxRetries,
		details:    details,
		tracer:     otel.Tracer(tracerName),
		logger:     logger,
	}, nil
}

// statusError is a non-success HTTP answer
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("OMDb API returned status %d: %s", e.code, e.body)
}

// retryable reports whether a later attempt may succeed
func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// get performs one logical OMDb call, retrying transient transport failures,
// and decodes the JSON body into out.
// Errors wrap models.ErrTransport or models.ErrCancelled.
func (c *Client) get(ctx context.Context, params url.Values, out interface{}) error {
	apiURL, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("%w: invalid OMDb URL: %v", models.ErrTransport, err)
	}

	params.Set("apikey", c.apiKey)
	apiURL.RawQuery = params.Encode()
	finalURL := apiURL.String()

	attempt := 0
	operation := func() error {
		attempt++

		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "popcorn/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return fmt.Errorf("OMDb API request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			statusErr := &statusError{code: resp.StatusCode, body: string(body)}
			if statusErr.retryable() {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}

		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newBackOff(), uint64(c.maxRetries)),
		ctx,
	)

	err = backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt,
			"wait_ms": wait.Milliseconds(),
		}).Warn("OMDb request failed, retrying")
	})
	if err == nil {
		return nil
	}

	return classify(ctx, err)
}

// classify maps a failed call onto the error taxonomy.
// A cancelled context wins over whatever the transport reported.
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.Canceled) {
			return fmt.Errorf("%w: %w", models.ErrCancelled, ctxErr)
		}
		return fmt.Errorf("%w: %w", models.ErrTransport, ctxErr)
	}
	return fmt.Errorf("%w: %w", models.ErrTransport, err)
}

func newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	// The context bounds the total time
	b.MaxElapsedTime = 0
	return b
}
