// Package storage persists opportunities, alert deliveries, paper positions
// and worker heartbeats.
package storage

import (
	"context"
	"time"

	"github.com/christopherhenripage/odds-trader/internal/arbitrage"
	"github.com/christopherhenripage/odds-trader/internal/paper"
	"github.com/christopherhenripage/odds-trader/pkg/types"
)

// Storage is the persistence boundary of the scanner.
type Storage interface {
	// UpsertOpportunity stores opp keyed by fingerprint and returns its row id.
	// A repeat fingerprint refreshes edge, width and legs.
	UpsertOpportunity(ctx context.Context, opp *arbitrage.Opportunity) (string, error)

	// NotificationUsers returns users whose channel is not NONE.
	NotificationUsers(ctx context.Context) ([]types.NotificationUser, error)

	// HasDelivered reports whether a SENT delivery exists for the pair.
	HasDelivered(ctx context.Context, opportunityID, userID string) (bool, error)
	RecordDelivery(ctx context.Context, rec DeliveryRecord) error

	// AutoFillAccounts returns enabled paper accounts with auto-fill on.
	AutoFillAccounts(ctx context.Context) ([]PaperAccount, error)
	OpenPositionCount(ctx context.Context, userID string) (int, error)
	CreatePaperPosition(ctx context.Context, pos PaperPosition) error
	DebitBankroll(ctx context.Context, userID string, amount float64) error

	// UpdateHeartbeat appends a heartbeat and trims history to HeartbeatRetention rows.
	UpdateHeartbeat(ctx context.Context, hb types.Heartbeat) error

	Close() error
}

// HeartbeatRetention is the number of heartbeat rows kept.
const HeartbeatRetention = 100

// DeliveryRecord is one attempt to alert a user about an opportunity.
type DeliveryRecord struct {
	OpportunityID string
	UserID        string
	Status        types.DeliveryStatus
	Channel       types.NotificationChannel
	Error         string
}

// PaperAccount is a user's simulated bankroll and fill model.
type PaperAccount struct {
	UserID     string
	Bankroll   float64
	MaxOpen    int
	Enabled    bool
	AutoFill   bool
	Simulation paper.SimulationConfig
}

// PaperPosition is a simulated position, including missed attempts.
type PaperPosition struct {
	ID              string
	UserID          string
	Type            arbitrage.Type
	EventID         string
	Summary         string
	StakeTotal      float64
	EdgePct         float64
	Status          paper.Status
	Legs            []arbitrage.Leg
	LatencyMs       int
	SlippageApplied []float64
	CreatedAt       time.Time
}
