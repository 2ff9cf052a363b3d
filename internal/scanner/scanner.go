// Package scanner runs the poll loop: fetch odds, detect, bundle, dedup,
// persist, notify and paper-fill.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/christopherhenripage/odds-trader/internal/arbitrage"
	"github.com/christopherhenripage/odds-trader/internal/bundle"
	"github.com/christopherhenripage/odds-trader/internal/dedup"
	"github.com/christopherhenripage/odds-trader/internal/normalizer"
	"github.com/christopherhenripage/odds-trader/internal/notify"
	"github.com/christopherhenripage/odds-trader/internal/paper"
	"github.com/christopherhenripage/odds-trader/internal/provider"
	"github.com/christopherhenripage/odds-trader/internal/stakes"
	"github.com/christopherhenripage/odds-trader/internal/storage"
	"github.com/christopherhenripage/odds-trader/pkg/types"
)

// Default cadences, in polls.
const (
	DefaultHeartbeatEvery = 6
	DefaultCleanupEvery   = 60
)

// OddsProvider is the subset of the provider client the scanner uses.
type OddsProvider interface {
	ListSports(ctx context.Context) ([]types.Sport, error)
	GetOdds(ctx context.Context, sportKey string, markets []string) ([]types.RawEvent, error)
	APICalls() int64
}

// Notifier delivers one opportunity to one user.
type Notifier interface {
	Send(ctx context.Context, opp *arbitrage.Opportunity, user types.NotificationUser) notify.Result
}

// Publisher receives every flushed set of bundles.
type Publisher interface {
	Publish(bundles []bundle.Bundled)
}

// HeartbeatRecorder receives every heartbeat.
type HeartbeatRecorder interface {
	RecordHeartbeat(hb types.Heartbeat)
}

// Config holds scanner configuration.
type Config struct {
	Provider  OddsProvider
	Detector  *arbitrage.Detector
	Dedup     dedup.Cache
	Buffer    *bundle.Buffer
	Storage   storage.Storage
	Notifier  Notifier
	Simulator *paper.Simulator

	// Publisher and Heartbeats are optional.
	Publisher  Publisher
	Heartbeats HeartbeatRecorder

	Interval       time.Duration
	Sports         []string
	Markets        []string
	MaxPerEvent    int
	StakeDefault   float64
	HeartbeatEvery int
	CleanupEvery   int

	Logger *zap.Logger
	Now    func() time.Time
}

// Service is the scanner worker. Cycles never overlap.
type Service struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	cycleMu sync.Mutex

	mu          sync.RWMutex
	pollCount   int64
	lastScanAt  time.Time
	lastError   string
	lastBundles []bundle.Bundled
}

// New creates a new scanner with defaults applied.
func New(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.MaxPerEvent <= 0 {
		cfg.MaxPerEvent = bundle.DefaultMaxPerEvent
	}
	if cfg.StakeDefault <= 0 {
		cfg.StakeDefault = 100
	}
	if cfg.HeartbeatEvery <= 0 {
		cfg.HeartbeatEvery = DefaultHeartbeatEvery
	}
	if cfg.CleanupEvery <= 0 {
		cfg.CleanupEvery = DefaultCleanupEvery
	}
	if len(cfg.Markets) == 0 {
		cfg.Markets = provider.DefaultMarkets()
	}

	return &Service{
		cfg:    cfg,
		logger: cfg.Logger,
		now:    cfg.Now,
	}
}

// Run polls immediately and then on every interval until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("scanner-starting",
		zap.Duration("interval", s.cfg.Interval),
		zap.Strings("sports", s.cfg.Sports),
		zap.Strings("markets", s.cfg.Markets))

	s.heartbeat(ctx)
	s.Cycle(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			dropped := s.discardPending()
			s.logger.Info("scanner-stopping",
				zap.Int64("polls", s.PollCount()),
				zap.Int("pending-dropped", len(dropped)))
			return ctx.Err()
		case <-ticker.C:
			s.Cycle(ctx)
		}
	}
}

// Cycle runs one poll and the periodic heartbeat and cleanup.
func (s *Service) Cycle(ctx context.Context) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	if err := s.Poll(ctx); err != nil {
		s.logger.Error("poll-failed", zap.Error(err))
	}

	polls := s.PollCount()
	if polls%int64(s.cfg.HeartbeatEvery) == 0 {
		s.heartbeat(ctx)
	}
	if polls%int64(s.cfg.CleanupEvery) == 0 {
		s.cleanup(ctx)
	}
}

// discardPending empties the buffer without processing it and returns
// the opportunities that were waiting for the window to elapse.
func (s *Service) discardPending() []*arbitrage.Opportunity {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	pending := s.cfg.Buffer.Peek()
	s.cfg.Buffer.Clear()

	if len(pending) > 0 {
		fingerprints := make([]string, len(pending))
		for i, opp := range pending {
			fingerprints[i] = opp.Fingerprint
		}
		s.logger.Warn("pending-opportunities-dropped",
			zap.Int("count", len(pending)),
			zap.Strings("fingerprints", fingerprints))
	}

	return pending
}

// Poll fetches every selected sport, buffers detections and, when the
// bundle window has elapsed, processes the flushed opportunities.
func (s *Service) Poll(ctx context.Context) error {
	start := s.now()
	s.mu.Lock()
	s.pollCount++
	poll := s.pollCount
	s.lastError = ""
	s.mu.Unlock()

	PollsTotal.Inc()
	defer func() {
		PollDurationSeconds.Observe(s.now().Sub(start).Seconds())
	}()

	opps, err := s.scan(ctx)
	if err != nil {
		PollErrorsTotal.Inc()
		s.setError(err)
		return err
	}

	s.cfg.Buffer.Add(opps)

	if s.cfg.Buffer.ShouldFlush() {
		bundles := s.cfg.Buffer.Flush(s.cfg.MaxPerEvent)
		s.mu.Lock()
		s.lastBundles = bundles
		s.mu.Unlock()

		if s.cfg.Publisher != nil {
			s.cfg.Publisher.Publish(bundles)
		}

		if _, err := s.Process(ctx, bundle.Flatten(bundles)); err != nil {
			PollErrorsTotal.Inc()
			s.setError(err)
			return err
		}
	}

	s.mu.Lock()
	s.lastScanAt = s.now()
	s.mu.Unlock()

	s.logger.Info("poll-complete",
		zap.Int64("poll", poll),
		zap.Int("detected", len(opps)),
		zap.Int("buffered", s.cfg.Buffer.Size()),
		zap.Int64("api-calls", s.cfg.Provider.APICalls()))

	return nil
}

// ScanOnce fetches and detects across the selected sports without
// buffering, dedup, persistence or notification.
func (s *Service) ScanOnce(ctx context.Context) ([]*arbitrage.Opportunity, error) {
	return s.scan(ctx)
}

func (s *Service) scan(ctx context.Context) ([]*arbitrage.Opportunity, error) {
	sports, err := s.cfg.Provider.ListSports(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sports: %w", err)
	}

	keys := provider.FilterSports(sports, s.cfg.Sports)

	var all []*arbitrage.Opportunity
	for _, key := range keys {
		if ctx.Err() != nil {
			return all, ctx.Err()
		}

		opps, err := s.scanSport(ctx, key)
		if err != nil {
			SportScanErrorsTotal.Inc()
			s.logger.Warn("sport-scan-failed", zap.String("sport", key), zap.Error(err))
			continue
		}
		all = append(all, opps...)
	}

	return all, nil
}

func (s *Service) scanSport(ctx context.Context, sportKey string) ([]*arbitrage.Opportunity, error) {
	raws, err := s.cfg.Provider.GetOdds(ctx, sportKey, s.cfg.Markets)
	if err != nil {
		return nil, fmt.Errorf("get odds: %w", err)
	}

	events := normalizer.NormalizeAll(raws)
	opps := s.cfg.Detector.DetectAll(events)

	s.logger.Debug("sport-scanned",
		zap.String("sport", sportKey),
		zap.Int("events", len(events)),
		zap.Int("opportunities", len(opps)))

	return opps, nil
}

// Process filters opps through the dedup cache, persists and notifies the
// new ones and runs paper auto-fill on them. Per-item persistence failures
// are logged, kept as the last error and skipped. It returns the
// opportunities that were new.
func (s *Service) Process(ctx context.Context, opps []*arbitrage.Opportunity) ([]*arbitrage.Opportunity, error) {
	if len(opps) == 0 {
		return nil, nil
	}

	users, err := s.cfg.Storage.NotificationUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load notification users: %w", err)
	}

	var fresh []*arbitrage.Opportunity
	for _, opp := range opps {
		isNew, err := s.cfg.Dedup.CheckAndAdd(ctx, opp.Fingerprint)
		if err != nil {
			s.recordFailure("dedup-check-failed", err, zap.String("fingerprint", opp.Fingerprint))
			continue
		}
		if !isNew {
			continue
		}

		id, err := s.cfg.Storage.UpsertOpportunity(ctx, opp)
		if err != nil {
			s.recordFailure("opportunity-upsert-failed", err, zap.String("fingerprint", opp.Fingerprint))
			continue
		}

		fresh = append(fresh, opp)
		OpportunitiesProcessedTotal.WithLabelValues(string(opp.Type)).Inc()
		s.logger.Info("opportunity-found",
			zap.String("id", id),
			zap.String("type", string(opp.Type)),
			zap.String("market", string(opp.MarketKey)),
			zap.String("matchup", opp.Matchup()),
			zap.Float64("edge-pct", opp.EdgePct))

		s.notifyUsers(ctx, id, opp, users)
	}

	s.paperFill(ctx, fresh)

	return fresh, nil
}

func (s *Service) notifyUsers(ctx context.Context, id string, opp *arbitrage.Opportunity, users []types.NotificationUser) {
	if s.cfg.Notifier == nil {
		return
	}

	for _, user := range users {
		delivered, err := s.cfg.Storage.HasDelivered(ctx, id, user.UserID)
		if err != nil {
			s.recordFailure("delivery-lookup-failed", err, zap.String("user-id", user.UserID))
			continue
		}
		if delivered {
			continue
		}

		result := s.cfg.Notifier.Send(ctx, opp, user)

		rec := storage.DeliveryRecord{
			OpportunityID: id,
			UserID:        user.UserID,
			Status:        types.DeliverySent,
			Channel:       user.Channel,
		}
		if !result.Success {
			rec.Status = types.DeliveryFailed
			rec.Error = result.Error
		}

		if err := s.cfg.Storage.RecordDelivery(ctx, rec); err != nil {
			s.recordFailure("delivery-record-failed", err, zap.String("user-id", user.UserID))
		}
	}
}

// paperFill tries one simulated fill per auto-fill account. Misses and
// lost edges are recorded with a zero stake and do not end the attempt.
func (s *Service) paperFill(ctx context.Context, opps []*arbitrage.Opportunity) {
	if s.cfg.Simulator == nil || len(opps) == 0 {
		return
	}

	accounts, err := s.cfg.Storage.AutoFillAccounts(ctx)
	if err != nil {
		s.recordFailure("paper-accounts-load-failed", err)
		return
	}

	minEdge := s.cfg.Detector.Config().MinEdge
	stake := s.cfg.StakeDefault

	for _, account := range accounts {
		open, err := s.cfg.Storage.OpenPositionCount(ctx, account.UserID)
		if err != nil {
			s.recordFailure("open-position-count-failed", err, zap.String("user-id", account.UserID))
			continue
		}
		if open >= account.MaxOpen {
			continue
		}

		for _, opp := range opps {
			if opp.Type != arbitrage.TypeArb || opp.EdgePct < minEdge || account.Bankroll < stake {
				continue
			}

			result := s.cfg.Simulator.DecideWith(opp, account.Simulation)
			pos := storage.PaperPosition{
				UserID:    account.UserID,
				Type:      opp.Type,
				EventID:   opp.EventID,
				Summary:   positionSummary(opp),
				Status:    result.Status,
				LatencyMs: result.LatencyMs,
			}

			if !result.Filled {
				pos.EdgePct = result.OriginalEdge
				pos.Legs = result.OriginalLegs
				pos.SlippageApplied = []float64{}
				if err := s.cfg.Storage.CreatePaperPosition(ctx, pos); err != nil {
					s.recordFailure("paper-position-create-failed", err, zap.String("user-id", account.UserID))
				}
				continue
			}

			pos.StakeTotal = stake
			pos.EdgePct = result.FinalEdge
			pos.Legs = stakedLegs(result.FinalLegs, stake)
			pos.SlippageApplied = result.SlippageApplied

			if err := s.cfg.Storage.CreatePaperPosition(ctx, pos); err != nil {
				s.recordFailure("paper-position-create-failed", err, zap.String("user-id", account.UserID))
				break
			}
			if err := s.cfg.Storage.DebitBankroll(ctx, account.UserID, stake); err != nil {
				s.recordFailure("bankroll-debit-failed", err, zap.String("user-id", account.UserID))
			}

			s.logger.Info("paper-fill",
				zap.String("user-id", account.UserID),
				zap.String("summary", pos.Summary),
				zap.String("status", string(result.Status)),
				zap.String("status-description", paper.StatusDescription(result.Status)),
				zap.Float64("final-edge", result.FinalEdge))
			break
		}
	}
}

func positionSummary(opp *arbitrage.Opportunity) string {
	return fmt.Sprintf("%s vs %s - %s", opp.HomeTeam, opp.AwayTeam, opp.MarketKey)
}

// stakedLegs splits stake across legs, falling back to unstaked legs.
func stakedLegs(legs []arbitrage.Leg, stake float64) []arbitrage.Leg {
	staked, err := stakes.ArbStakes(legs, stake)
	if err != nil {
		return legs
	}
	return staked
}

func (s *Service) heartbeat(ctx context.Context) {
	hb := s.Heartbeat()

	if err := s.cfg.Storage.UpdateHeartbeat(ctx, hb); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("heartbeat-failed", zap.Error(err))
	}
	if s.cfg.Heartbeats != nil {
		s.cfg.Heartbeats.RecordHeartbeat(hb)
	}

	HeartbeatsTotal.Inc()
	s.logger.Info("heartbeat",
		zap.Int64("polls", hb.Polls),
		zap.Int64("api-calls", hb.APICalls),
		zap.String("last-error", hb.LastError))
}

func (s *Service) cleanup(ctx context.Context) {
	removed, err := s.cfg.Dedup.Cleanup(ctx)
	if err != nil {
		s.logger.Warn("dedup-cleanup-failed", zap.Error(err))
		return
	}
	s.logger.Info("dedup-cleanup", zap.Int("removed", removed))
}

func (s *Service) recordFailure(event string, err error, fields ...zap.Field) {
	ProcessErrorsTotal.WithLabelValues(event).Inc()
	s.logger.Error(event, append(fields, zap.Error(err))...)
	s.setError(err)
}

func (s *Service) setError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

// Heartbeat returns the current liveness snapshot.
func (s *Service) Heartbeat() types.Heartbeat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return types.Heartbeat{
		LastScanAt: s.lastScanAt,
		Polls:      s.pollCount,
		LastError:  s.lastError,
		APICalls:   s.cfg.Provider.APICalls(),
	}
}

// PollCount returns the number of polls started.
func (s *Service) PollCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pollCount
}

// LastBundles returns the most recently flushed bundles.
func (s *Service) LastBundles() []bundle.Bundled {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]bundle.Bundled(nil), s.lastBundles...)
}
