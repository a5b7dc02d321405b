package port

import (
	"context"

	"marketdash/internal/domain"
)

// StreamEvent is one delivery from a push source. Err is set instead of
// Liquidation when the source failed; the consumer surfaces it inline and
// keeps ingesting.
type StreamEvent struct {
	Liquidation *domain.Liquidation
	Err         string
}

// LiquidationFeed is the push-style liquidation stream: one event per inbound
// message, no acknowledgement, no backpressure. Subscribe returns a channel
// closed when ctx is done.
type LiquidationFeed interface {
	Name() string
	Subscribe(ctx context.Context) (<-chan StreamEvent, error)
}
