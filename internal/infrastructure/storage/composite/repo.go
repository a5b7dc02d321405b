package composite

import (
	"context"

	"marketdash/internal/application/port"
	"marketdash/internal/domain"
)

// Repo fans every write out to all configured repositories; the first error
// wins but later repos still run.
type Repo struct {
	repos []port.Repository
}

func New(repos ...port.Repository) *Repo {
	// nil repos are allowed; filter in constructor for safety
	out := make([]port.Repository, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

func (r *Repo) UpsertTicker(ctx context.Context, t domain.Ticker) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.UpsertTicker(ctx, t); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) InsertLiquidation(ctx context.Context, l domain.Liquidation) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.InsertLiquidation(ctx, l); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) InsertSnapshot(ctx context.Context, ts int64, payload string) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.InsertSnapshot(ctx, ts, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) UpsertSessionStats(ctx context.Context, sumUSD float64, count int64, ts int64) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.UpsertSessionStats(ctx, sumUSD, count, ts); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) Close() error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ port.Repository = (*Repo)(nil)
