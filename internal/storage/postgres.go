package storage

import (
	"context"
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/christopherhenripage/odds-trader/internal/arbitrage"
	"github.com/christopherhenripage/odds-trader/internal/paper"
	"github.com/christopherhenripage/odds-trader/pkg/types"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// DSN renders the lib/pq connection string.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// NewPostgresStorage opens and pings a PostgreSQL connection.
func NewPostgresStorage(ctx context.Context, cfg *PostgresConfig) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return NewPostgresStorageFromDB(db, cfg.Logger), nil
}

// NewPostgresStorageFromDB wraps an existing handle.
func NewPostgresStorageFromDB(db *sql.DB, logger *zap.Logger) *PostgresStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStorage{db: db, logger: logger}
}

// Migrate applies Schema. Every statement is idempotent.
func (p *PostgresStorage) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	p.logger.Info("postgres-schema-applied")
	return nil
}

const upsertOpportunityQuery = `
	INSERT INTO opportunities (
		fingerprint, stable_fingerprint, event_id, sport_key, sport_title,
		commence_time, home_team, away_team, type, market_key,
		edge_pct, middle_width, legs, detected_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
	)
	ON CONFLICT (fingerprint) DO UPDATE SET
		edge_pct = EXCLUDED.edge_pct,
		middle_width = EXCLUDED.middle_width,
		legs = EXCLUDED.legs,
		updated_at = NOW()
	RETURNING id`

// UpsertOpportunity stores opp keyed by fingerprint.
func (p *PostgresStorage) UpsertOpportunity(ctx context.Context, opp *arbitrage.Opportunity) (string, error) {
	legs, err := json.Marshal(opp.Legs)
	if err != nil {
		return "", fmt.Errorf("marshal legs: %w", err)
	}

	var width sql.NullFloat64
	if opp.MiddleWidth != nil {
		width = sql.NullFloat64{Float64: *opp.MiddleWidth, Valid: true}
	}

	var id string
	err = p.db.QueryRowContext(ctx, upsertOpportunityQuery,
		opp.Fingerprint,
		arbitrage.StableFingerprint(opp.EventID, opp.MarketKey, opp.Type, opp.Legs),
		opp.EventID,
		opp.SportKey,
		opp.SportTitle,
		opp.CommenceTime,
		opp.HomeTeam,
		opp.AwayTeam,
		string(opp.Type),
		string(opp.MarketKey),
		opp.EdgePct,
		width,
		legs,
		opp.DetectedAt,
	).Scan(&id)
	if err != nil {
		StorageErrorsTotal.WithLabelValues("upsert_opportunity").Inc()
		return "", fmt.Errorf("upsert opportunity: %w", err)
	}

	OpportunitiesStoredTotal.WithLabelValues(string(opp.Type)).Inc()
	p.logger.Debug("opportunity-stored",
		zap.String("id", id),
		zap.String("fingerprint", opp.Fingerprint),
		zap.String("type", string(opp.Type)))

	return id, nil
}

// NotificationUsers returns users whose channel is not NONE.
func (p *PostgresStorage) NotificationUsers(ctx context.Context) ([]types.NotificationUser, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT user_id, channel,
			COALESCE(discord_webhook, ''), COALESCE(telegram_bot_token, ''),
			COALESCE(telegram_chat_id, ''), COALESCE(slack_webhook, '')
		FROM notification_settings
		WHERE channel <> 'NONE'`)
	if err != nil {
		return nil, fmt.Errorf("query notification users: %w", err)
	}
	defer rows.Close()

	var users []types.NotificationUser
	for rows.Next() {
		var u types.NotificationUser
		var channel string
		if err := rows.Scan(&u.UserID, &channel, &u.DiscordWebhook, &u.TelegramBotToken, &u.TelegramChatID, &u.SlackWebhook); err != nil {
			return nil, fmt.Errorf("scan notification user: %w", err)
		}
		u.Channel = types.NotificationChannel(channel)
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification users: %w", err)
	}

	return users, nil
}

// HasDelivered reports whether a SENT delivery exists for the pair.
func (p *PostgresStorage) HasDelivered(ctx context.Context, opportunityID, userID string) (bool, error) {
	var count int
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM opportunity_deliveries
		WHERE opportunity_id = $1 AND user_id = $2 AND status = 'SENT'`,
		opportunityID, userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count deliveries: %w", err)
	}
	return count > 0, nil
}

// RecordDelivery inserts one delivery attempt.
func (p *PostgresStorage) RecordDelivery(ctx context.Context, rec DeliveryRecord) error {
	var errText sql.NullString
	if rec.Error != "" {
		errText = sql.NullString{String: rec.Error, Valid: true}
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO opportunity_deliveries (opportunity_id, user_id, status, channel, error)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.OpportunityID, rec.UserID, string(rec.Status), string(rec.Channel), errText,
	)
	if err != nil {
		StorageErrorsTotal.WithLabelValues("record_delivery").Inc()
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// AutoFillAccounts returns enabled paper accounts with auto-fill on.
func (p *PostgresStorage) AutoFillAccounts(ctx context.Context) ([]PaperAccount, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT user_id, bankroll, max_open, enabled, auto_fill,
			latency_ms_min, latency_ms_max, slippage_bps, miss_fill_prob,
			max_leg_odds_worsen, fill_even_if_edge_lost
		FROM paper_accounts
		WHERE enabled AND auto_fill`)
	if err != nil {
		return nil, fmt.Errorf("query paper accounts: %w", err)
	}
	defer rows.Close()

	var accounts []PaperAccount
	for rows.Next() {
		var a PaperAccount
		var sim paper.SimulationConfig
		err := rows.Scan(
			&a.UserID, &a.Bankroll, &a.MaxOpen, &a.Enabled, &a.AutoFill,
			&sim.LatencyMsMin, &sim.LatencyMsMax, &sim.SlippageBps, &sim.MissFillProb,
			&sim.MaxLegOddsWorsen, &sim.FillEvenIfEdgeLost,
		)
		if err != nil {
			return nil, fmt.Errorf("scan paper account: %w", err)
		}
		a.Simulation = sim
		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paper accounts: %w", err)
	}

	return accounts, nil
}

// OpenPositionCount counts a user's OPEN positions.
func (p *PostgresStorage) OpenPositionCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM paper_positions WHERE user_id = $1 AND status = 'OPEN'`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count open positions: %w", err)
	}
	return count, nil
}

// CreatePaperPosition inserts a position.
func (p *PostgresStorage) CreatePaperPosition(ctx context.Context, pos PaperPosition) error {
	legs, err := json.Marshal(pos.Legs)
	if err != nil {
		return fmt.Errorf("marshal legs: %w", err)
	}

	slippage := pos.SlippageApplied
	if slippage == nil {
		slippage = []float64{}
	}
	slippageJSON, err := json.Marshal(slippage)
	if err != nil {
		return fmt.Errorf("marshal slippage: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO paper_positions (
			user_id, type, event_id, summary, stake_total, edge_pct,
			status, legs, latency_ms, slippage_applied
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		pos.UserID, string(pos.Type), pos.EventID, pos.Summary, pos.StakeTotal, pos.EdgePct,
		string(pos.Status), legs, pos.LatencyMs, slippageJSON,
	)
	if err != nil {
		StorageErrorsTotal.WithLabelValues("create_position").Inc()
		return fmt.Errorf("insert paper position: %w", err)
	}

	PaperPositionsTotal.WithLabelValues(string(pos.Status)).Inc()
	return nil
}

// DebitBankroll subtracts amount from a user's bankroll.
func (p *PostgresStorage) DebitBankroll(ctx context.Context, userID string, amount float64) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE paper_accounts SET bankroll = bankroll - $1 WHERE user_id = $2`,
		amount, userID,
	)
	if err != nil {
		return fmt.Errorf("debit bankroll: %w", err)
	}
	return nil
}

// UpdateHeartbeat appends a heartbeat and keeps the newest HeartbeatRetention rows.
func (p *PostgresStorage) UpdateHeartbeat(ctx context.Context, hb types.Heartbeat) error {
	var lastError sql.NullString
	if hb.LastError != "" {
		lastError = sql.NullString{String: hb.LastError, Valid: true}
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO worker_heartbeats (last_scan_at, polls, last_error, api_calls)
		VALUES ($1, $2, $3, $4)`,
		hb.LastScanAt, hb.Polls, lastError, hb.APICalls,
	)
	if err != nil {
		StorageErrorsTotal.WithLabelValues("heartbeat").Inc()
		return fmt.Errorf("insert heartbeat: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		DELETE FROM worker_heartbeats
		WHERE id NOT IN (
			SELECT id FROM worker_heartbeats ORDER BY created_at DESC LIMIT $1
		)`,
		HeartbeatRetention,
	)
	if err != nil {
		return fmt.Errorf("trim heartbeats: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
