package dashboard

import (
	"context"

	"marketdash/internal/application/port"
	"marketdash/internal/domain"
)

type noopRepo struct{}

// NewNoopRepo is the repository used when persistence is disabled.
func NewNoopRepo() port.Repository { return &noopRepo{} }

func (n *noopRepo) UpsertTicker(ctx context.Context, t domain.Ticker) error { return nil }
func (n *noopRepo) InsertSnapshot(ctx context.Context, ts int64, payload string) error {
	return nil
}
func (n *noopRepo) InsertLiquidation(ctx context.Context, l domain.Liquidation) error { return nil }
func (n *noopRepo) UpsertSessionStats(ctx context.Context, sumUSD float64, count int64, ts int64) error {
	return nil
}
func (n *noopRepo) Close() error { return nil }
