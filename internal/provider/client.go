// Package provider is an HTTP client for The Odds API (v4).
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/christopherhenripage/odds-trader/pkg/cache"
	"github.com/christopherhenripage/odds-trader/pkg/types"
)

const (
	// DefaultBaseURL is the public Odds API endpoint.
	DefaultBaseURL = "https://api.the-odds-api.com/v4"

	// DefaultMaxAttempts bounds retries on 429 and 5xx responses.
	DefaultMaxAttempts = 5

	// SportsCacheTTL is how long the active sports list is reused.
	SportsCacheTTL = 10 * time.Minute

	sportsCacheKey = "sports:active"
)

// Config holds configuration for the provider client.
type Config struct {
	BaseURL        string
	APIKey         string
	Regions        string
	OddsFormat     string
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	RatePerSecond  float64
	Burst          int
	HTTPClient     *http.Client
	Cache          cache.Cache
	Logger         *zap.Logger
}

// RateLimit is the request quota reported by the provider's response headers.
type RateLimit struct {
	Remaining   int       `json:"remaining"`
	Used        int       `json:"used"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Client fetches sports and odds with retry, rate limiting and quota tracking.
type Client struct {
	baseURL        string
	apiKey         string
	regions        string
	oddsFormat     string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	httpClient     *http.Client
	limiter        *rate.Limiter
	cache          cache.Cache
	logger         *zap.Logger

	apiCalls atomic.Int64

	mu        sync.Mutex
	rateLimit RateLimit
}

// NewClient creates a new provider client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Regions == "" {
		cfg.Regions = "us"
	}
	if cfg.OddsFormat == "" {
		cfg.OddsFormat = "decimal"
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 2 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		regions:        cfg.Regions,
		oddsFormat:     cfg.OddsFormat,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		httpClient:     cfg.HTTPClient,
		limiter:        rate.NewLimiter(limit, cfg.Burst),
		cache:          cfg.Cache,
		logger:         cfg.Logger,
		rateLimit:      RateLimit{Remaining: 500},
	}
}

// ListSports returns the active sports, cached for SportsCacheTTL.
func (c *Client) ListSports(ctx context.Context) ([]types.Sport, error) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(sportsCacheKey); ok {
			if sports, ok := cached.([]types.Sport); ok {
				return sports, nil
			}
		}
	}

	var sports []types.Sport
	if err := c.get(ctx, "/sports", nil, &sports); err != nil {
		return nil, fmt.Errorf("list sports: %w", err)
	}

	active := make([]types.Sport, 0, len(sports))
	for _, s := range sports {
		if s.Active {
			active = append(active, s)
		}
	}

	if c.cache != nil {
		c.cache.Set(sportsCacheKey, active, SportsCacheTTL)
	}

	c.logger.Debug("sports-fetched",
		zap.Int("total", len(sports)),
		zap.Int("active", len(active)))

	return active, nil
}

// DefaultMarkets returns the provider market keys fetched when none are given.
func DefaultMarkets() []string {
	return []string{string(types.ProviderMarketH2H), string(types.MarketTotals), string(types.MarketSpreads)}
}

// GetOdds returns raw events with odds for one sport.
func (c *Client) GetOdds(ctx context.Context, sportKey string, markets []string) ([]types.RawEvent, error) {
	if len(markets) == 0 {
		markets = DefaultMarkets()
	}

	params := url.Values{}
	params.Set("regions", c.regions)
	params.Set("markets", strings.Join(markets, ","))
	params.Set("oddsFormat", c.oddsFormat)

	var events []types.RawEvent
	endpoint := "/sports/" + url.PathEscape(sportKey) + "/odds"
	if err := c.get(ctx, endpoint, params, &events); err != nil {
		return nil, fmt.Errorf("get odds for %s: %w", sportKey, err)
	}

	c.logger.Debug("odds-fetched",
		zap.String("sport", sportKey),
		zap.Int("events", len(events)))

	return events, nil
}

// APICalls returns the number of HTTP requests made by c.
func (c *Client) APICalls() int64 {
	return c.apiCalls.Load()
}

// RateLimit returns the last quota reported by the provider.
func (c *Client) RateLimit() RateLimit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rateLimit
}

// get performs a GET with retry on 429/5xx and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", c.apiKey)
	requestURL := c.baseURL + endpoint + "?" + params.Encode()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			wait := c.backoff(attempt - 1)
			ProviderRetriesTotal.WithLabelValues(endpointLabel(endpoint)).Inc()
			c.logger.Warn("provider-retrying",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", wait),
				zap.Error(lastErr))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		body, err := c.do(ctx, endpoint, requestURL)
		if err == nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("unmarshal response: %w", err)
			}
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		var perr *types.ProviderError
		if errors.As(err, &perr) && !perr.Retryable() {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%s after %d attempts: %w: %w", endpoint, c.maxAttempts, types.ErrRetriesExhausted, lastErr)
}

// do sends one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, endpoint, requestURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "odds-trader/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	label := endpointLabel(endpoint)
	ProviderRequestDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if err != nil {
		ProviderRequestsTotal.WithLabelValues(label, "error").Inc()
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	c.apiCalls.Add(1)
	c.updateRateLimit(resp.Header)
	ProviderRequestsTotal.WithLabelValues(label, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &types.ProviderError{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Body:       truncate(string(body), 256),
		}
	}

	return body, nil
}

// backoff returns min(initial * 2^(retry-1), max) for the given retry number.
func (c *Client) backoff(retry int) time.Duration {
	wait := c.initialBackoff
	for i := 1; i < retry; i++ {
		wait *= 2
		if wait >= c.maxBackoff {
			return c.maxBackoff
		}
	}
	return min(wait, c.maxBackoff)
}

func (c *Client) updateRateLimit(h http.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, err := strconv.Atoi(h.Get("x-requests-remaining")); err == nil {
		c.rateLimit.Remaining = v
		RequestsRemaining.Set(float64(v))
	}
	if v, err := strconv.Atoi(h.Get("x-requests-used")); err == nil {
		c.rateLimit.Used = v
	}
	c.rateLimit.LastUpdated = time.Now()
}

func endpointLabel(endpoint string) string {
	if strings.HasSuffix(endpoint, "/odds") {
		return "odds"
	}
	return "sports"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
