// Package catalog is the client for the remote card catalog (the
// pokemontcg.io v2 API shape) and the strict Card and Set types the rest of
// the module works with.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/peterkuimelis/tcgdeck/internal/logging"
	"github.com/peterkuimelis/tcgdeck/internal/metrics"
)

var (
	// ErrUnavailable wraps every transport, status or decode failure.
	ErrUnavailable = errors.New("catalog unavailable")

	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found in catalog")
)

// DefaultBaseURL is the public catalog endpoint.
const DefaultBaseURL = "https://api.pokemontcg.io/v2"

// MaxPageSize is the largest page the catalog serves.
const MaxPageSize = 250

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// RatePerSecond and Burst size the client-side token bucket.
	// RatePerSecond <= 0 disables limiting.
	RatePerSecond float64
	Burst         int
}

// Client talks to the catalog API. It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
}

// New creates a Client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		cb:      newBreaker("catalog"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A missing card is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerValue(to))
		},
	})
}

func breakerValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// SearchCards runs a catalog query and returns one page of results.
// Pages are 1-based.
func (c *Client) SearchCards(ctx context.Context, query string, page, pageSize int) ([]Card, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(pageSize))

	var env listEnvelope[rawCard]
	if err := c.get(ctx, "cards", "/cards", params, &env); err != nil {
		return nil, fmt.Errorf("search cards %q page %d: %w", query, page, err)
	}
	return toCards(env.Data), nil
}

// Card fetches a single card by catalog id.
func (c *Client) Card(ctx context.Context, id string) (Card, error) {
	var env itemEnvelope[rawCard]
	if err := c.get(ctx, "card", "/cards/"+url.PathEscape(id), nil, &env); err != nil {
		return Card{}, fmt.Errorf("get card %s: %w", id, err)
	}
	if env.Data == nil {
		return Card{}, fmt.Errorf("get card %s: %w", id, ErrNotFound)
	}
	card := env.Data.toCard()
	if card.ID == "" {
		return Card{}, fmt.Errorf("get card %s: record has no id: %w", id, ErrUnavailable)
	}
	return card, nil
}

// Sets fetches the full set list, following pages until a short one.
func (c *Client) Sets(ctx context.Context) ([]Set, error) {
	var sets []Set
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("pageSize", strconv.Itoa(MaxPageSize))

		var env listEnvelope[rawSet]
		if err := c.get(ctx, "sets", "/sets", params, &env); err != nil {
			return nil, fmt.Errorf("list sets page %d: %w", page, err)
		}
		for _, r := range env.Data {
			if s := r.toSet(); s.ID != "" {
				sets = append(sets, s)
			}
		}
		if len(env.Data) < MaxPageSize {
			return sets, nil
		}
	}
}

// Set fetches a single set by id.
func (c *Client) Set(ctx context.Context, id string) (Set, error) {
	var env itemEnvelope[rawSet]
	if err := c.get(ctx, "set", "/sets/"+url.PathEscape(id), nil, &env); err != nil {
		return Set{}, fmt.Errorf("get set %s: %w", id, err)
	}
	if env.Data == nil {
		return Set{}, fmt.Errorf("get set %s: %w", id, ErrNotFound)
	}
	return env.Data.toSet(), nil
}

// get performs a rate-limited, breaker-protected GET and decodes the body
// into out.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	start := time.Now()
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.fetch(ctx, u)
	})
	metrics.CatalogRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.CatalogRequests.WithLabelValues(endpoint, "ok").Inc()
	case errors.Is(err, ErrNotFound):
		metrics.CatalogRequests.WithLabelValues(endpoint, "not_found").Inc()
		return err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CatalogRequests.WithLabelValues(endpoint, "rejected").Inc()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		metrics.CatalogRequests.WithLabelValues(endpoint, "error").Inc()
		logging.Debug().Err(err).Str("url", u).Msg("catalog request failed")
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUnavailable, endpoint, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: api status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	return body, nil
}
