package port

import (
	"context"

	"marketdash/internal/domain"
)

// Repository persists what the dashboard produces. The pipeline itself never
// reads any of this back; persistence is an optional outer concern.
type Repository interface {
	// UpsertTicker stores the latest enriched record per (exchange, symbol).
	UpsertTicker(ctx context.Context, t domain.Ticker) error

	// InsertSnapshot appends one rendered frame per refresh cycle.
	InsertSnapshot(ctx context.Context, ts int64, payload string) error

	// InsertLiquidation appends one liquidation event.
	InsertLiquidation(ctx context.Context, l domain.Liquidation) error

	// UpsertSessionStats stores the running aggregate of the live feed.
	UpsertSessionStats(ctx context.Context, sumUSD float64, count int64, ts int64) error

	Close() error
}
