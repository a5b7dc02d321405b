package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"marketdash/internal/application/port"
	"marketdash/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS tickers (
  exchange TEXT NOT NULL,
  symbol TEXT NOT NULL,
  base_asset TEXT NOT NULL,
  quote_asset TEXT NOT NULL,
  last_price TEXT NOT NULL,
  quote_volume TEXT NOT NULL,
  change_pct TEXT NOT NULL,
  spread DOUBLE PRECISION NOT NULL,
  volatility DOUBLE PRECISION NOT NULL,
  funding_rate TEXT,
  open_interest TEXT,
  ts_ms BIGINT NOT NULL,
  created_at BIGINT NOT NULL,
  PRIMARY KEY(exchange, symbol)
);
CREATE INDEX IF NOT EXISTS idx_tickers_ts ON tickers(ts_ms);

CREATE TABLE IF NOT EXISTS liquidations (
  id BIGSERIAL PRIMARY KEY,
  exchange TEXT NOT NULL,
  symbol TEXT NOT NULL,
  side TEXT NOT NULL,
  price TEXT NOT NULL,
  qty TEXT NOT NULL,
  usd_value DOUBLE PRECISION NOT NULL,
  ts_ms BIGINT NOT NULL,
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_liq_ts ON liquidations(ts_ms);

CREATE TABLE IF NOT EXISTS snapshots (
  id BIGSERIAL PRIMARY KEY,
  ts_ms BIGINT NOT NULL,
  payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts_ms);

CREATE TABLE IF NOT EXISTS session_stats (
  id INT PRIMARY KEY CHECK (id = 1),
  liq_usd_sum DOUBLE PRECISION NOT NULL,
  liq_count BIGINT NOT NULL,
  ts_ms BIGINT NOT NULL
);
`)
	return err
}

func (r *Repo) UpsertTicker(ctx context.Context, t domain.Ticker) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tickers(exchange, symbol, base_asset, quote_asset, last_price,
			quote_volume, change_pct, spread, volatility, funding_rate, open_interest,
			ts_ms, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT(exchange, symbol) DO UPDATE SET
		last_price=excluded.last_price, quote_volume=excluded.quote_volume,
		change_pct=excluded.change_pct, spread=excluded.spread,
		volatility=excluded.volatility, funding_rate=excluded.funding_rate,
		open_interest=excluded.open_interest, ts_ms=excluded.ts_ms
	`, t.Exchange, t.Symbol, t.BaseAsset, t.QuoteAsset, t.LastPrice,
		t.QuoteVolume, t.PriceChangePercent, t.Spread, t.Volatility,
		nullable(t.FundingRate), nullable(t.OpenInterest),
		t.Ts, time.Now().UnixMilli())
	return err
}

func (r *Repo) InsertLiquidation(ctx context.Context, l domain.Liquidation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO liquidations(exchange, symbol, side, price, qty, usd_value, ts_ms, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8)
	`, l.Exchange, l.Symbol, l.Side, l.Price, l.Qty, l.USDValue, l.Ts, time.Now().UnixMilli())
	return err
}

func (r *Repo) InsertSnapshot(ctx context.Context, ts int64, payload string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshots(ts_ms, payload) VALUES($1, $2)
	`, ts, payload)
	return err
}

func (r *Repo) UpsertSessionStats(ctx context.Context, sumUSD float64, count int64, ts int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_stats(id, liq_usd_sum, liq_count, ts_ms) VALUES(1, $1, $2, $3)
		ON CONFLICT(id) DO UPDATE SET
		liq_usd_sum=excluded.liq_usd_sum, liq_count=excluded.liq_count, ts_ms=excluded.ts_ms
	`, sumUSD, count, ts)
	return err
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

var _ port.Repository = (*Repo)(nil)
