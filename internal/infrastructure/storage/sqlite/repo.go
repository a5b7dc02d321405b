package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"marketdash/internal/application/port"
	"marketdash/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

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
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  exchange TEXT NOT NULL,
  symbol TEXT NOT NULL,
  base_asset TEXT NOT NULL,
  quote_asset TEXT NOT NULL,
  last_price TEXT NOT NULL,
  quote_volume TEXT NOT NULL,
  change_pct TEXT NOT NULL,
  spread REAL NOT NULL,
  volatility REAL NOT NULL,
  funding_rate TEXT,
  open_interest TEXT,
  ts_ms INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  UNIQUE(exchange, symbol)
);
CREATE INDEX IF NOT EXISTS idx_tickers_symbol ON tickers(symbol);
CREATE INDEX IF NOT EXISTS idx_tickers_ts ON tickers(ts_ms);

CREATE TABLE IF NOT EXISTS liquidations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  exchange TEXT NOT NULL,
  symbol TEXT NOT NULL,
  side TEXT NOT NULL,
  price TEXT NOT NULL,
  qty TEXT NOT NULL,
  usd_value REAL NOT NULL,
  ts_ms INTEGER NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_liq_symbol ON liquidations(symbol);
CREATE INDEX IF NOT EXISTS idx_liq_ts ON liquidations(ts_ms);

CREATE TABLE IF NOT EXISTS snapshots (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts_ms INTEGER NOT NULL,
  payload TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts_ms);

CREATE TABLE IF NOT EXISTS session_stats (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  liq_usd_sum REAL NOT NULL,
  liq_count INTEGER NOT NULL,
  ts_ms INTEGER NOT NULL
);
`)
	return err
}

func (r *Repo) UpsertTicker(ctx context.Context, t domain.Ticker) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tickers(exchange, symbol, base_asset, quote_asset, last_price,
			quote_volume, change_pct, spread, volatility, funding_rate, open_interest,
			ts_ms, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`, l.Exchange, l.Symbol, l.Side, l.Price, l.Qty, l.USDValue, l.Ts, time.Now().UnixMilli())
	return err
}

func (r *Repo) InsertSnapshot(ctx context.Context, ts int64, payload string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshots(ts_ms, payload, created_at) VALUES(?, ?, ?)
	`, ts, payload, time.Now().UnixMilli())
	return err
}

func (r *Repo) UpsertSessionStats(ctx context.Context, sumUSD float64, count int64, ts int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_stats(id, liq_usd_sum, liq_count, ts_ms) VALUES(1, ?, ?, ?)
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
