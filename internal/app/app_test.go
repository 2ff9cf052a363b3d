package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/christopherhenripage/odds-trader/internal/storage"
	"github.com/christopherhenripage/odds-trader/pkg/config"
	"github.com/christopherhenripage/odds-trader/pkg/httpserver"
	"github.com/christopherhenripage/odds-trader/pkg/types"
)

const arbOddsPayload = `[{
	"id":"evt-arb",
	"sport_key":"basketball_nba",
	"sport_title":"NBA",
	"commence_time":"2030-01-10T00:30:00Z",
	"home_team":"Lakers",
	"away_team":"Celtics",
	"bookmakers":[
		{"key":"draftkings","title":"DraftKings","markets":[{"key":"h2h","outcomes":[{"name":"Lakers","price":2.10},{"name":"Celtics","price":1.80}]}]},
		{"key":"fanduel","title":"FanDuel","markets":[{"key":"h2h","outcomes":[{"name":"Lakers","price":1.80},{"name":"Celtics","price":2.05}]}]}
	]
}]`

func newOddsServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/sports", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"key":"basketball_nba","title":"NBA","active":true}]`))
	})
	mux.HandleFunc("/sports/basketball_nba/odds", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(arbOddsPayload))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

type webhookRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func newWebhookServer(t *testing.T) (*httptest.Server, *webhookRecorder) {
	t.Helper()

	rec := &webhookRecorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.bodies = append(rec.bodies, string(body))
		rec.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)
	return server, rec
}

func (r *webhookRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bodies)
}

func testConfig(oddsURL string) *config.Config {
	return &config.Config{
		LogLevel:               "info",
		HTTPPort:               "0",
		OddsAPIKey:             "test-key",
		OddsAPIURL:             oddsURL,
		OddsAPIRegions:         "us",
		ProviderMaxAttempts:    1,
		ProviderInitialBackoff: time.Millisecond,
		ProviderMaxBackoff:     time.Millisecond,
		ScanInterval:           time.Hour,
		Sports:                 []string{"all"},
		Markets:                []string{"h2h"},
		HeartbeatEvery:         1,
		CleanupEvery:           10,
		MinEdge:                0.5,
		MinMiddleWidth:         0.5,
		TotalsMiddleEdgeFloor:  -5,
		SpreadsMiddleEdgeFloor: -10,
		StakeDefault:           100,
		BundleWindow:           time.Nanosecond,
		MaxPerEventBundle:      5,
		DedupeTTL:              time.Minute,
		DedupeBackend:          "memory",
		PaperLatencyMsMin:      400,
		PaperLatencyMsMax:      2200,
		PaperSlippageBps:       35,
		PaperMissFillProb:      0.08,
		PaperMaxLegOddsWorsen:  0.15,
		StorageMode:            "console",
	}
}

func TestApp_CycleEndToEnd(t *testing.T) {
	odds := newOddsServer(t)
	webhook, rec := newWebhookServer(t)

	var out bytes.Buffer
	store := storage.NewConsoleStorageWithWriter(&out, zap.NewNop())
	store.SeedUser(types.NotificationUser{
		UserID:         "user-1",
		Channel:        types.ChannelDiscord,
		DiscordWebhook: webhook.URL,
	})

	a, err := New(testConfig(odds.URL), zap.NewNop(), &Options{Storage: store})
	require.NoError(t, err)
	defer a.closeAll()

	time.Sleep(time.Millisecond)
	a.Scanner().Cycle(context.Background())

	bundles := a.Scanner().LastBundles()
	require.Len(t, bundles, 1)
	assert.Equal(t, "evt-arb", bundles[0].EventID)
	assert.Equal(t, 3.6, bundles[0].BestEdge)

	assert.Contains(t, out.String(), "ARB")
	assert.Contains(t, out.String(), "Celtics @ Lakers")

	assert.Equal(t, 1, rec.count())
	deliveries := store.Deliveries()
	require.Len(t, deliveries, 1)
	assert.Equal(t, types.DeliverySent, deliveries[0].Status)

	hb, ok := a.healthChecker.LastHeartbeat()
	require.True(t, ok)
	assert.Equal(t, int64(1), hb.Polls)
	assert.Equal(t, int64(2), hb.APICalls)

	w := httptest.NewRecorder()
	a.httpServer.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bundles", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp httpserver.BundlesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	// Same opportunity again inside the dedup window is not re-sent.
	time.Sleep(time.Millisecond)
	a.Scanner().Cycle(context.Background())
	assert.Equal(t, 1, rec.count())
}

func TestApp_SportsOverride(t *testing.T) {
	var oddsCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/sports", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"key":"basketball_nba","active":true},{"key":"icehockey_nhl","active":true}]`))
	})
	mux.HandleFunc("/sports/icehockey_nhl/odds", func(w http.ResponseWriter, r *http.Request) {
		oddsCalls.Add(1)
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/sports/basketball_nba/odds", func(w http.ResponseWriter, r *http.Request) {
		t.Error("basketball should not be scanned")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := storage.NewConsoleStorageWithWriter(io.Discard, zap.NewNop())
	a, err := New(testConfig(server.URL), zap.NewNop(), &Options{Sports: []string{"icehockey_nhl"}, Storage: store})
	require.NoError(t, err)
	defer a.closeAll()

	opps, err := a.Scanner().ScanOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, opps)
	assert.Equal(t, int32(1), oddsCalls.Load())
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	odds := newOddsServer(t)
	store := storage.NewConsoleStorageWithWriter(io.Discard, zap.NewNop())

	a, err := New(testConfig(odds.URL), zap.NewNop(), &Options{Storage: store})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- a.Run()
	}()

	require.Eventually(t, func() bool {
		_, ok := a.healthChecker.LastHeartbeat()
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	a.cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestNew_RedisUnavailable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.DedupeBackend = "redis"
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := New(cfg, zap.NewNop(), &Options{Storage: storage.NewConsoleStorageWithWriter(io.Discard, zap.NewNop())})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup dedup")
}

func TestSimulationConfig_FromConfig(t *testing.T) {
	cfg := testConfig("")
	cfg.PaperFillEvenIfEdgeLost = true

	sim := SimulationConfig(cfg)
	assert.Equal(t, 400, sim.LatencyMsMin)
	assert.Equal(t, 2200, sim.LatencyMsMax)
	assert.Equal(t, 35.0, sim.SlippageBps)
	assert.True(t, sim.FillEvenIfEdgeLost)
	assert.NoError(t, sim.Validate())
}
