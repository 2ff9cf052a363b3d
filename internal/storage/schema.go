package storage

// Schema creates the tables used by PostgresStorage.
const Schema = `
CREATE EXTENSION IF NOT EXISTS pgcrypto;

CREATE TABLE IF NOT EXISTS opportunities (
	id                 UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	fingerprint        TEXT NOT NULL UNIQUE,
	stable_fingerprint TEXT NOT NULL,
	event_id           TEXT NOT NULL,
	sport_key          TEXT NOT NULL,
	sport_title        TEXT NOT NULL,
	commence_time      TIMESTAMPTZ NOT NULL,
	home_team          TEXT NOT NULL,
	away_team          TEXT NOT NULL,
	type               TEXT NOT NULL,
	market_key         TEXT NOT NULL,
	edge_pct           DOUBLE PRECISION NOT NULL,
	middle_width       DOUBLE PRECISION,
	legs               JSONB NOT NULL,
	detected_at        TIMESTAMPTZ NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_opportunities_stable_fingerprint ON opportunities (stable_fingerprint);
CREATE INDEX IF NOT EXISTS idx_opportunities_event_id ON opportunities (event_id);

CREATE TABLE IF NOT EXISTS notification_settings (
	user_id            TEXT PRIMARY KEY,
	channel            TEXT NOT NULL DEFAULT 'NONE',
	discord_webhook    TEXT,
	telegram_bot_token TEXT,
	telegram_chat_id   TEXT,
	slack_webhook      TEXT
);

CREATE TABLE IF NOT EXISTS opportunity_deliveries (
	id             BIGSERIAL PRIMARY KEY,
	opportunity_id UUID NOT NULL REFERENCES opportunities (id) ON DELETE CASCADE,
	user_id        TEXT NOT NULL,
	status         TEXT NOT NULL,
	channel        TEXT NOT NULL,
	error          TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_deliveries_opportunity_user ON opportunity_deliveries (opportunity_id, user_id);

CREATE TABLE IF NOT EXISTS paper_accounts (
	user_id                TEXT PRIMARY KEY,
	bankroll               DOUBLE PRECISION NOT NULL DEFAULT 10000,
	max_open               INTEGER NOT NULL DEFAULT 10,
	enabled                BOOLEAN NOT NULL DEFAULT TRUE,
	auto_fill              BOOLEAN NOT NULL DEFAULT FALSE,
	latency_ms_min         INTEGER NOT NULL DEFAULT 400,
	latency_ms_max         INTEGER NOT NULL DEFAULT 2200,
	slippage_bps           DOUBLE PRECISION NOT NULL DEFAULT 35,
	miss_fill_prob         DOUBLE PRECISION NOT NULL DEFAULT 0.08,
	max_leg_odds_worsen    DOUBLE PRECISION NOT NULL DEFAULT 0.15,
	fill_even_if_edge_lost BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS paper_positions (
	id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id          TEXT NOT NULL,
	type             TEXT NOT NULL,
	event_id         TEXT NOT NULL,
	summary          TEXT NOT NULL,
	stake_total      DOUBLE PRECISION NOT NULL,
	edge_pct         DOUBLE PRECISION NOT NULL,
	status           TEXT NOT NULL,
	legs             JSONB NOT NULL,
	latency_ms       INTEGER NOT NULL,
	slippage_applied JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_paper_positions_user_status ON paper_positions (user_id, status);

CREATE TABLE IF NOT EXISTS worker_heartbeats (
	id           BIGSERIAL PRIMARY KEY,
	last_scan_at TIMESTAMPTZ NOT NULL,
	polls        BIGINT NOT NULL,
	last_error   TEXT,
	api_calls    BIGINT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
