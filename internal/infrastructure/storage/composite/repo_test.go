package composite

import (
	"context"
	"errors"
	"testing"

	"marketdash/internal/domain"
)

type countingRepo struct {
	tickers      int
	liquidations int
	snapshots    int
	stats        int
	closed       bool
	err          error
}

func (c *countingRepo) UpsertTicker(ctx context.Context, t domain.Ticker) error {
	c.tickers++
	return c.err
}
func (c *countingRepo) InsertLiquidation(ctx context.Context, l domain.Liquidation) error {
	c.liquidations++
	return c.err
}
func (c *countingRepo) InsertSnapshot(ctx context.Context, ts int64, payload string) error {
	c.snapshots++
	return c.err
}
func (c *countingRepo) UpsertSessionStats(ctx context.Context, sumUSD float64, count int64, ts int64) error {
	c.stats++
	return c.err
}
func (c *countingRepo) Close() error {
	c.closed = true
	return c.err
}

func TestFanOutReachesEveryRepo(t *testing.T) {
	a, b := &countingRepo{}, &countingRepo{}
	repo := New(a, nil, b)

	ctx := context.Background()
	if err := repo.UpsertTicker(ctx, domain.Ticker{}); err != nil {
		t.Fatalf("UpsertTicker: %v", err)
	}
	if err := repo.InsertLiquidation(ctx, domain.Liquidation{}); err != nil {
		t.Fatalf("InsertLiquidation: %v", err)
	}
	if err := repo.InsertSnapshot(ctx, 1, "x"); err != nil {
		t.Fatalf("InsertSnapshot: %v", err)
	}
	if err := repo.UpsertSessionStats(ctx, 1, 1, 1); err != nil {
		t.Fatalf("UpsertSessionStats: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for i, r := range []*countingRepo{a, b} {
		if r.tickers != 1 || r.liquidations != 1 || r.snapshots != 1 || r.stats != 1 || !r.closed {
			t.Errorf("repo %d missed writes: %+v", i, r)
		}
	}
}

func TestFirstErrorWinsButAllRun(t *testing.T) {
	errA := errors.New("disk full")
	a := &countingRepo{err: errA}
	b := &countingRepo{}
	repo := New(a, b)

	err := repo.UpsertTicker(context.Background(), domain.Ticker{})
	if !errors.Is(err, errA) {
		t.Errorf("expected the first repo's error, got %v", err)
	}
	if b.tickers != 1 {
		t.Error("later repo must still receive the write")
	}
}
