package port

import (
	"context"

	"marketdash/internal/domain"
)

// Source is one entry of the venue capability table: a thin REST client that
// reshapes the vendor 24h-ticker payload into the common raw record. Adding a
// venue means adding one registry entry, never editing call sites.
type Source interface {
	Name() string
	FetchTickers(ctx context.Context) ([]domain.RawTicker, error)
}

// FundingSource is implemented by venues that expose a derivatives feed
// (funding rate / open interest). Checked by type assertion on Source.
type FundingSource interface {
	FetchFunding(ctx context.Context) ([]domain.FundingRate, error)
}

// KlineSource is implemented by venues that expose candles; used to build the
// commentary price history.
type KlineSource interface {
	FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]domain.Kline, error)
}
