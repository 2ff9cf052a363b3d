package healthprobe

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"

	"github.com/christopherhenripage/odds-trader/pkg/types"
)

// DefaultStaleAfter is how old the last scan may get before /status reports the
// worker as stale.
const DefaultStaleAfter = 5 * time.Minute

// HealthChecker provides health and readiness checks, and tracks the scan
// worker's most recent heartbeat.
type HealthChecker struct {
	startTime  time.Time
	ready      atomic.Bool
	staleAfter time.Duration
	now        func() time.Time

	mu        sync.RWMutex
	heartbeat types.Heartbeat
	beats     int64
}

// New creates a new HealthChecker.
func New() *HealthChecker {
	return &HealthChecker{
		startTime:  time.Now(),
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
	}
}

// SetReady marks the application as ready to serve traffic.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// SetStaleAfter changes the staleness threshold used by Status.
func (h *HealthChecker) SetStaleAfter(d time.Duration) {
	h.mu.Lock()
	h.staleAfter = d
	h.mu.Unlock()
}

// RecordHeartbeat stores the latest worker heartbeat.
func (h *HealthChecker) RecordHeartbeat(hb types.Heartbeat) {
	h.mu.Lock()
	h.heartbeat = hb
	h.beats++
	h.mu.Unlock()
}

// LastHeartbeat returns the latest heartbeat and whether one was recorded.
func (h *HealthChecker) LastHeartbeat() (types.Heartbeat, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.heartbeat, h.beats > 0
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Message string `json:"message,omitempty"`
}

// StatusResponse reports the scan worker's state.
type StatusResponse struct {
	Status     string           `json:"status"`
	Uptime     string           `json:"uptime"`
	Heartbeats int64            `json:"heartbeats"`
	Heartbeat  *types.Heartbeat `json:"heartbeat,omitempty"`
}

// Health returns an HTTP handler for liveness checks.
// Always returns 200 OK if the application is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{
			Status: "healthy",
			Uptime: time.Since(h.startTime).String(),
		})
	}
}

// Ready returns an HTTP handler for readiness checks.
// Returns 200 OK if ready, 503 Service Unavailable if not.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.ready.Load() {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "not_ready",
				Message: "application is starting",
			})
			return
		}

		writeJSON(w, http.StatusOK, HealthResponse{
			Status: "ready",
			Uptime: time.Since(h.startTime).String(),
		})
	}
}

// Status returns an HTTP handler reporting the last heartbeat.
// The status is "waiting" before the first heartbeat, "stale" when the last
// successful scan is older than the threshold, "degraded" when the last poll
// failed, and "ok" otherwise. It always answers 200.
func (h *HealthChecker) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.mu.RLock()
		hb := h.heartbeat
		beats := h.beats
		staleAfter := h.staleAfter
		h.mu.RUnlock()

		resp := StatusResponse{
			Status:     "waiting",
			Uptime:     time.Since(h.startTime).String(),
			Heartbeats: beats,
		}

		if beats > 0 {
			resp.Heartbeat = &hb
			switch {
			case hb.LastError != "":
				resp.Status = "degraded"
			case hb.LastScanAt.IsZero() || h.now().Sub(hb.LastScanAt) > staleAfter:
				resp.Status = "stale"
			default:
				resp.Status = "ok"
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
