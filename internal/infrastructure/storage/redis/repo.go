package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"marketdash/internal/application/port"
	"marketdash/internal/domain"
)

type Repo struct {
	rdb       *redis.Client
	prefix    string
	ttl       time.Duration
	keyLatest string // prefix + ":latest"
	liqStream string // prefix + ":liquidations"
	keyStats  string // prefix + ":session"
}

func New(rdb *redis.Client, prefix string, ttl time.Duration) *Repo {
	return &Repo{
		rdb:       rdb,
		prefix:    prefix,
		ttl:       ttl,
		keyLatest: prefix + ":latest",
		liqStream: prefix + ":liquidations",
		keyStats:  prefix + ":session",
	}
}

type latestTicker struct {
	Exchange     string  `json:"exchange"`
	Symbol       string  `json:"symbol"`
	Last         string  `json:"last"`
	ChangePct    string  `json:"change_pct"`
	Spread       float64 `json:"spread"`
	Volatility   float64 `json:"volatility"`
	FundingRate  *string `json:"funding_rate,omitempty"`
	OpenInterest *string `json:"open_interest,omitempty"`
	Ts           int64   `json:"ts"`
}

func (r *Repo) UpsertTicker(ctx context.Context, t domain.Ticker) error {
	lt := latestTicker{
		Exchange:     t.Exchange,
		Symbol:       t.Symbol,
		Last:         t.LastPrice,
		ChangePct:    t.PriceChangePercent,
		Spread:       t.Spread,
		Volatility:   t.Volatility,
		FundingRate:  t.FundingRate,
		OpenInterest: t.OpenInterest,
		Ts:           t.Ts,
	}
	b, _ := json.Marshal(lt)

	// Hash: field = "BINANCE:BTCUSDT" -> json
	field := fmt.Sprintf("%s:%s", t.Exchange, t.Symbol)
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.keyLatest, field, string(b))
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyLatest, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Repo) InsertLiquidation(ctx context.Context, l domain.Liquidation) error {
	_, err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.liqStream,
		MaxLen: 10000,
		Approx: true,
		Values: map[string]any{
			"exchange":  l.Exchange,
			"symbol":    l.Symbol,
			"side":      l.Side,
			"price":     l.Price,
			"qty":       l.Qty,
			"usd_value": l.USDValue,
			"ts_ms":     l.Ts,
		},
	}).Result()
	return err
}

func (r *Repo) InsertSnapshot(ctx context.Context, ts int64, payload string) error {
	// frames are console output; redis keeps only the live view
	return nil
}

func (r *Repo) UpsertSessionStats(ctx context.Context, sumUSD float64, count int64, ts int64) error {
	b, _ := json.Marshal(map[string]any{
		"liq_usd_sum": sumUSD,
		"liq_count":   count,
		"ts_ms":       ts,
	})
	return r.rdb.Set(ctx, r.keyStats, string(b), 0).Err()
}

func (r *Repo) Close() error { return r.rdb.Close() }

var _ port.Repository = (*Repo)(nil)
