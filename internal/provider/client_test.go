package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/christopherhenripage/odds-trader/pkg/cache"
	"github.com/christopherhenripage/odds-trader/pkg/types"
)

const sportsPayload = `[
	{"key":"basketball_nba","group":"Basketball","title":"NBA","active":true,"has_outrights":false},
	{"key":"basketball_nba_championship_winner","group":"Basketball","title":"NBA Championship Winner","active":true,"has_outrights":true},
	{"key":"icehockey_nhl","group":"Ice Hockey","title":"NHL","active":false,"has_outrights":false}
]`

const oddsPayload = `[{
	"id":"evt-1",
	"sport_key":"basketball_nba",
	"sport_title":"NBA",
	"commence_time":"2026-01-10T00:30:00Z",
	"home_team":"Lakers",
	"away_team":"Celtics",
	"bookmakers":[{
		"key":"draftkings","title":"DraftKings","last_update":"2026-01-09T18:00:00Z",
		"markets":[{"key":"h2h","outcomes":[{"name":"Lakers","price":2.10},{"name":"Celtics","price":1.80}]}]
	}]
}]`

func newTestClient(serverURL string) *Client {
	return NewClient(Config{
		BaseURL:        serverURL,
		APIKey:         "test-key",
		MaxAttempts:    3,
		InitialBackoff: 5 * time.Millisecond,
		MaxBackoff:     20 * time.Millisecond,
		Logger:         zap.NewNop(),
	})
}

func TestGetOdds_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sports/basketball_nba/odds", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		assert.Equal(t, "us", r.URL.Query().Get("regions"))
		assert.Equal(t, "h2h,totals", r.URL.Query().Get("markets"))
		assert.Equal(t, "decimal", r.URL.Query().Get("oddsFormat"))

		w.Header().Set("x-requests-remaining", "480")
		w.Header().Set("x-requests-used", "20")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(oddsPayload))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	events, err := client.GetOdds(context.Background(), "basketball_nba", []string{"h2h", "totals"})
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, "evt-1", events[0].ID)
	require.Len(t, events[0].Bookmakers, 1)
	assert.Equal(t, 2.10, events[0].Bookmakers[0].Markets[0].Outcomes[0].Price.Value)

	assert.Equal(t, int64(1), client.APICalls())
	rl := client.RateLimit()
	assert.Equal(t, 480, rl.Remaining)
	assert.Equal(t, 20, rl.Used)
	assert.False(t, rl.LastUpdated.IsZero())
}

func TestGetOdds_DefaultMarkets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "h2h,totals,spreads", r.URL.Query().Get("markets"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	events, err := newTestClient(server.URL).GetOdds(context.Background(), "basketball_nba", nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestGetOdds_RetryOnRetryableStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "rate-limited", status: http.StatusTooManyRequests},
		{name: "server-error", status: http.StatusInternalServerError},
		{name: "bad-gateway", status: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attemptCount atomic.Int32

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if attemptCount.Add(1) <= 2 {
					w.WriteHeader(tt.status)
					_, _ = w.Write([]byte(`{"message":"try later"}`))
					return
				}
				_, _ = w.Write([]byte(oddsPayload))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			events, err := client.GetOdds(context.Background(), "basketball_nba", nil)
			require.NoError(t, err)
			assert.Len(t, events, 1)

			assert.Equal(t, int32(3), attemptCount.Load())
			assert.Equal(t, int64(3), client.APICalls())
		})
	}
}

func TestGetOdds_RetriesExhausted(t *testing.T) {
	var attemptCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attemptCount.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetOdds(context.Background(), "basketball_nba", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrRetriesExhausted), "got %v", err)

	var perr *types.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusServiceUnavailable, perr.StatusCode)

	assert.Equal(t, int32(3), attemptCount.Load())
}

func TestGetOdds_NoRetryOnClientError(t *testing.T) {
	var attemptCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attemptCount.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid api key"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetOdds(context.Background(), "basketball_nba", nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, types.ErrRetriesExhausted))
	assert.Contains(t, err.Error(), "invalid api key")
	assert.Equal(t, int32(1), attemptCount.Load())
}

func TestGetOdds_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL:        server.URL,
		MaxAttempts:    5,
		InitialBackoff: time.Minute,
		Logger:         zap.NewNop(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GetOdds(ctx, "basketball_nba", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetOdds_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetOdds(context.Background(), "basketball_nba", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal response")
}

func TestBackoff(t *testing.T) {
	client := NewClient(Config{
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
	})

	tests := []struct {
		retry int
		want  time.Duration
	}{
		{retry: 1, want: 2 * time.Second},
		{retry: 2, want: 4 * time.Second},
		{retry: 3, want: 8 * time.Second},
		{retry: 4, want: 16 * time.Second},
		{retry: 5, want: 30 * time.Second},
		{retry: 20, want: 30 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, client.backoff(tt.retry), "retry %d", tt.retry)
	}
}

func TestListSports_ActiveOnlyAndCached(t *testing.T) {
	var attemptCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attemptCount.Add(1)
		assert.Equal(t, "/sports", r.URL.Path)
		_, _ = w.Write([]byte(sportsPayload))
	}))
	defer server.Close()

	c, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      zap.NewNop(),
	})
	require.NoError(t, err)
	defer c.Close()

	client := NewClient(Config{BaseURL: server.URL, Cache: c, Logger: zap.NewNop()})

	sports, err := client.ListSports(context.Background())
	require.NoError(t, err)
	require.Len(t, sports, 2)
	assert.Equal(t, "basketball_nba", sports[0].Key)

	c.(*cache.RistrettoCache).Wait()

	sports, err = client.ListSports(context.Background())
	require.NoError(t, err)
	assert.Len(t, sports, 2)
	assert.Equal(t, int32(1), attemptCount.Load(), "second call should hit the cache")
}

func TestListSports_NoCache(t *testing.T) {
	var attemptCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attemptCount.Add(1)
		_, _ = w.Write([]byte(sportsPayload))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ListSports(context.Background())
	require.NoError(t, err)
	_, err = client.ListSports(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), attemptCount.Load())
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{})

	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, "us", client.regions)
	assert.Equal(t, "decimal", client.oddsFormat)
	assert.Equal(t, DefaultMaxAttempts, client.maxAttempts)
	assert.Equal(t, 2*time.Second, client.initialBackoff)
	assert.Equal(t, 30*time.Second, client.maxBackoff)
	assert.Equal(t, 500, client.RateLimit().Remaining)
}
