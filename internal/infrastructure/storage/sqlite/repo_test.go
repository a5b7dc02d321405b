package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"marketdash/internal/domain"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func strPtr(s string) *string { return &s }

func TestUpsertTicker(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tk := domain.Ticker{
		RawTicker: domain.RawTicker{
			Symbol:             "BTCUSDT",
			LastPrice:          "45000",
			QuoteVolume:        "1000000",
			PriceChangePercent: "1.2",
		},
		Exchange:    "BINANCE",
		BaseAsset:   "BTC",
		QuoteAsset:  "USDT",
		Spread:      0.004,
		Volatility:  4.5,
		FundingRate: strPtr("0.0001"),
		Ts:          1700000000000,
	}
	if err := repo.UpsertTicker(ctx, tk); err != nil {
		t.Fatalf("UpsertTicker failed: %v", err)
	}

	// same key again must update, not duplicate
	tk.LastPrice = "45100"
	if err := repo.UpsertTicker(ctx, tk); err != nil {
		t.Fatalf("second UpsertTicker failed: %v", err)
	}

	var n int
	var last string
	row := repo.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(last_price) FROM tickers WHERE exchange='BINANCE' AND symbol='BTCUSDT'`)
	if err := row.Scan(&n, &last); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if n != 1 || last != "45100" {
		t.Errorf("expected 1 updated row, got count=%d last=%s", n, last)
	}
}

func TestUpsertTickerNilFunding(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tk := domain.Ticker{
		RawTicker:  domain.RawTicker{Symbol: "SOLUSDT", LastPrice: "100", QuoteVolume: "1", PriceChangePercent: "0"},
		Exchange:   "BINANCE",
		BaseAsset:  "SOL",
		QuoteAsset: "USDT",
	}
	if err := repo.UpsertTicker(ctx, tk); err != nil {
		t.Fatalf("UpsertTicker failed: %v", err)
	}

	var funding *string
	row := repo.db.QueryRowContext(ctx, `SELECT funding_rate FROM tickers WHERE symbol='SOLUSDT'`)
	if err := row.Scan(&funding); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if funding != nil {
		t.Errorf("expected NULL funding, got %v", *funding)
	}
}

func TestInsertLiquidation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.InsertLiquidation(ctx, domain.Liquidation{
		Symbol:   "BTCUSDT",
		Side:     domain.SideSell,
		Price:    "45000",
		Qty:      "0.5",
		USDValue: 22500,
		Ts:       1700000000000,
		Exchange: "BINANCE",
	})
	if err != nil {
		t.Fatalf("InsertLiquidation failed: %v", err)
	}
}

func TestInsertSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.InsertSnapshot(context.Background(), 1700000000000, "frame payload"); err != nil {
		t.Fatalf("InsertSnapshot failed: %v", err)
	}
}

func TestUpsertSessionStatsSingleRow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.UpsertSessionStats(ctx, 1000, 3, 1700000000000); err != nil {
		t.Fatalf("UpsertSessionStats failed: %v", err)
	}
	if err := repo.UpsertSessionStats(ctx, 2500, 7, 1700000001000); err != nil {
		t.Fatalf("second UpsertSessionStats failed: %v", err)
	}

	var n, count int
	var sum float64
	row := repo.db.QueryRowContext(ctx, `SELECT COUNT(*), MAX(liq_usd_sum), MAX(liq_count) FROM session_stats`)
	if err := row.Scan(&n, &sum, &count); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if n != 1 || sum != 2500 || count != 7 {
		t.Errorf("expected single updated row: n=%d sum=%v count=%d", n, sum, count)
	}
}
