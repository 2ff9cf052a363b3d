package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/christopherhenripage/odds-trader/internal/arbitrage"
	"github.com/christopherhenripage/odds-trader/internal/bundle"
	"github.com/christopherhenripage/odds-trader/internal/stakes"
)

// BundleSource exposes the most recently flushed bundles.
type BundleSource interface {
	LastBundles() []bundle.Bundled
}

// APIHandler serves the read-only JSON API.
type APIHandler struct {
	bundles      BundleSource
	defaultStake float64
	logger       *zap.Logger
}

// NewAPIHandler creates a new API handler. bundles may be nil.
func NewAPIHandler(bundles BundleSource, defaultStake float64, logger *zap.Logger) *APIHandler {
	if defaultStake <= 0 {
		defaultStake = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &APIHandler{
		bundles:      bundles,
		defaultStake: defaultStake,
		logger:       logger,
	}
}

// BundlesResponse is the body of GET /api/bundles.
// Stats[i] summarizes Bundles[i].
type BundlesResponse struct {
	Count   int              `json:"count"`
	Bundles []bundle.Bundled `json:"bundles"`
	Stats   []bundle.Stats   `json:"stats"`
}

// StakesResponse is the body of GET /api/stakes.
type StakesResponse struct {
	Type             string               `json:"type"`
	TotalStake       float64              `json:"totalStake"`
	EdgePct          float64              `json:"edgePct"`
	Legs             []arbitrage.Leg      `json:"legs"`
	GuaranteedProfit *float64             `json:"guaranteedProfit,omitempty"`
	ROI              *float64             `json:"roi,omitempty"`
	Middle           *stakes.MiddleResult `json:"middle,omitempty"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleBundles handles GET /api/bundles.
func (h *APIHandler) HandleBundles(w http.ResponseWriter, r *http.Request) {
	var bundles []bundle.Bundled
	if h.bundles != nil {
		bundles = h.bundles.LastBundles()
	}
	if bundles == nil {
		bundles = []bundle.Bundled{}
	}

	stats := make([]bundle.Stats, len(bundles))
	for i := range bundles {
		stats[i] = bundle.StatsFor(bundles[i])
	}

	h.writeJSON(w, http.StatusOK, BundlesResponse{Count: len(bundles), Bundles: bundles, Stats: stats})
}

// HandleStakes handles GET /api/stakes?odds=2.10,2.05[&stake=100][&type=middle].
func (h *APIHandler) HandleStakes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	odds, err := parseOdds(q.Get("odds"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	total := h.defaultStake
	if raw := q.Get("stake"); raw != "" {
		total, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			h.writeError(w, fmt.Sprintf("invalid stake %q", raw), http.StatusBadRequest)
			return
		}
	}

	legs := make([]arbitrage.Leg, len(odds))
	for i, o := range odds {
		legs[i] = arbitrage.Leg{Outcome: fmt.Sprintf("Leg %d", i+1), Odds: o}
	}

	resp, err := stakeLegs(legs, total, strings.EqualFold(q.Get("type"), "middle"))
	if err != nil {
		h.logger.Debug("stakes-request-rejected", zap.Error(err))
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func stakeLegs(legs []arbitrage.Leg, total float64, middle bool) (StakesResponse, error) {
	resp := StakesResponse{TotalStake: total}

	if middle {
		staked, err := stakes.MiddleStakes(legs, total)
		if err != nil {
			return StakesResponse{}, err
		}
		outcomes, err := stakes.MiddleOutcomes(legs, total)
		if err != nil {
			return StakesResponse{}, err
		}
		resp.Type = string(arbitrage.TypeMiddle)
		resp.EdgePct = arbitrage.Round2(arbitrage.CalculateEdge(legs))
		resp.Legs = staked
		resp.Middle = &outcomes
		return resp, nil
	}

	staked, err := stakes.ArbStakes(legs, total)
	if err != nil {
		return StakesResponse{}, err
	}
	profit, err := stakes.GuaranteedProfit(legs, total)
	if err != nil {
		return StakesResponse{}, err
	}
	roi := stakes.ROI(profit, total)

	resp.Type = string(arbitrage.TypeArb)
	resp.EdgePct = arbitrage.Round2(arbitrage.CalculateEdge(legs))
	resp.Legs = staked
	resp.GuaranteedProfit = &profit
	resp.ROI = &roi
	return resp, nil
}

func parseOdds(raw string) ([]float64, error) {
	if raw == "" {
		return nil, errors.New("odds parameter is required")
	}

	parts := strings.Split(raw, ",")
	odds := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid odds %q", p)
		}
		odds = append(odds, v)
	}
	return odds, nil
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, ErrorResponse{Error: message})
}
