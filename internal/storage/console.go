package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/christopherhenripage/odds-trader/internal/arbitrage"
	"github.com/christopherhenripage/odds-trader/internal/paper"
	"github.com/christopherhenripage/odds-trader/pkg/types"
)

// ConsoleStorage implements Storage in memory and prints every stored
// opportunity as a table. It backs local runs without a database.
type ConsoleStorage struct {
	mu     sync.Mutex
	out    io.Writer
	logger *zap.Logger

	opportunities map[string]string // fingerprint -> id
	users         []types.NotificationUser
	deliveries    []DeliveryRecord
	accounts      map[string]*PaperAccount
	positions     []PaperPosition
	heartbeats    []types.Heartbeat
}

// NewConsoleStorage creates a console storage writing to stdout.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	return NewConsoleStorageWithWriter(os.Stdout, logger)
}

// NewConsoleStorageWithWriter creates a console storage writing to out.
func NewConsoleStorageWithWriter(out io.Writer, logger *zap.Logger) *ConsoleStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("console-storage-initialized")

	return &ConsoleStorage{
		out:           out,
		logger:        logger,
		opportunities: make(map[string]string),
		accounts:      make(map[string]*PaperAccount),
	}
}

// SeedUser registers a notification user.
func (c *ConsoleStorage) SeedUser(user types.NotificationUser) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = append(c.users, user)
}

// SeedAccount registers a paper account.
func (c *ConsoleStorage) SeedAccount(account PaperAccount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a := account
	c.accounts[account.UserID] = &a
}

// UpsertOpportunity prints opp and returns a stable id per fingerprint.
func (c *ConsoleStorage) UpsertOpportunity(_ context.Context, opp *arbitrage.Opportunity) (string, error) {
	c.mu.Lock()
	id, ok := c.opportunities[opp.Fingerprint]
	if !ok {
		id = uuid.NewString()
		c.opportunities[opp.Fingerprint] = id
	}
	c.mu.Unlock()

	c.printOpportunity(opp)
	OpportunitiesStoredTotal.WithLabelValues(string(opp.Type)).Inc()

	return id, nil
}

func (c *ConsoleStorage) printOpportunity(opp *arbitrage.Opportunity) {
	header := fmt.Sprintf("%s %s | %s | %s | edge %+.2f%%",
		opp.Type, strings.ToUpper(string(opp.MarketKey)), opp.SportTitle, opp.Matchup(), opp.EdgePct)
	if opp.MiddleWidth != nil {
		header += fmt.Sprintf(" | width %.1f pts", *opp.MiddleWidth)
	}
	fmt.Fprintln(c.out, header)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Outcome", "Point", "Odds", "Bookmaker", "Stake")

	for i, leg := range opp.Legs {
		point := "-"
		if leg.Point != nil {
			point = fmt.Sprintf("%+g", *leg.Point)
		}
		stake := "-"
		if leg.Stake != nil {
			stake = fmt.Sprintf("$%.2f", *leg.Stake)
		}
		title := leg.BookmakerTitle
		if title == "" {
			title = leg.Bookmaker
		}

		table.Append(
			fmt.Sprintf("%d", i+1),
			leg.Outcome,
			point,
			fmt.Sprintf("%.2f", leg.Odds),
			title,
			stake,
		)
	}

	table.Render()
}

// NotificationUsers returns seeded users whose channel is not NONE.
func (c *ConsoleStorage) NotificationUsers(context.Context) ([]types.NotificationUser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var users []types.NotificationUser
	for _, u := range c.users {
		if u.Channel != types.ChannelNone {
			users = append(users, u)
		}
	}
	return users, nil
}

// HasDelivered reports whether a SENT delivery was recorded for the pair.
func (c *ConsoleStorage) HasDelivered(_ context.Context, opportunityID, userID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, d := range c.deliveries {
		if d.OpportunityID == opportunityID && d.UserID == userID && d.Status == types.DeliverySent {
			return true, nil
		}
	}
	return false, nil
}

// RecordDelivery appends rec.
func (c *ConsoleStorage) RecordDelivery(_ context.Context, rec DeliveryRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deliveries = append(c.deliveries, rec)
	return nil
}

// Deliveries returns a copy of the recorded deliveries.
func (c *ConsoleStorage) Deliveries() []DeliveryRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]DeliveryRecord(nil), c.deliveries...)
}

// AutoFillAccounts returns enabled accounts with auto-fill on.
func (c *ConsoleStorage) AutoFillAccounts(context.Context) ([]PaperAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var accounts []PaperAccount
	for _, a := range c.accounts {
		if a.Enabled && a.AutoFill {
			accounts = append(accounts, *a)
		}
	}
	return accounts, nil
}

// Account returns a copy of a paper account.
func (c *ConsoleStorage) Account(userID string) (PaperAccount, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.accounts[userID]
	if !ok {
		return PaperAccount{}, false
	}
	return *a, true
}

// OpenPositionCount counts a user's OPEN positions.
func (c *ConsoleStorage) OpenPositionCount(_ context.Context, userID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, p := range c.positions {
		if p.UserID == userID && p.Status == paper.StatusOpen {
			n++
		}
	}
	return n, nil
}

// CreatePaperPosition stores pos with a fresh id.
func (c *ConsoleStorage) CreatePaperPosition(_ context.Context, pos PaperPosition) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pos.ID == "" {
		pos.ID = uuid.NewString()
	}
	c.positions = append(c.positions, pos)
	PaperPositionsTotal.WithLabelValues(string(pos.Status)).Inc()

	c.logger.Info("paper-position-recorded",
		zap.String("user-id", pos.UserID),
		zap.String("summary", pos.Summary),
		zap.String("status", string(pos.Status)),
		zap.Float64("stake-total", pos.StakeTotal),
		zap.Float64("edge-pct", pos.EdgePct))

	return nil
}

// Positions returns a copy of the recorded positions.
func (c *ConsoleStorage) Positions() []PaperPosition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]PaperPosition(nil), c.positions...)
}

// DebitBankroll subtracts amount from a seeded account.
func (c *ConsoleStorage) DebitBankroll(_ context.Context, userID string, amount float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.accounts[userID]
	if !ok {
		return fmt.Errorf("debit bankroll: unknown account %s", userID)
	}
	a.Bankroll -= amount
	return nil
}

// UpdateHeartbeat appends hb, keeping the newest HeartbeatRetention entries.
func (c *ConsoleStorage) UpdateHeartbeat(_ context.Context, hb types.Heartbeat) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.heartbeats = append(c.heartbeats, hb)
	if len(c.heartbeats) > HeartbeatRetention {
		c.heartbeats = c.heartbeats[len(c.heartbeats)-HeartbeatRetention:]
	}
	return nil
}

// Heartbeats returns a copy of the retained heartbeats.
func (c *ConsoleStorage) Heartbeats() []types.Heartbeat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.Heartbeat(nil), c.heartbeats...)
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
