package domain

import (
	"strconv"
	"time"
)

// Normalizer shapes a venue's raw payload into the common ticker record:
// symbol split, derived metrics, funding merge. Pure per-cycle transformation;
// each refresh replaces the whole set.
type Normalizer struct {
	quotes QuoteSet
}

func NewNormalizer(quotes QuoteSet) *Normalizer {
	return &Normalizer{quotes: quotes}
}

// Normalize enriches raws and attaches funding records by exact symbol match.
// Tickers with a non-positive last price are dropped; zero or negative prices
// are not valid market observations.
func (n *Normalizer) Normalize(exchange string, raws []RawTicker, funding []FundingRate) []Ticker {
	bySymbol := make(map[string]*FundingRate, len(funding))
	for i := range funding {
		bySymbol[funding[i].Symbol] = &funding[i]
	}

	now := time.Now().UnixMilli()
	out := make([]Ticker, 0, len(raws))
	for _, raw := range raws {
		last, err := strconv.ParseFloat(raw.LastPrice, 64)
		if err != nil || last <= 0 {
			continue
		}

		base, quote := n.quotes.Split(raw.Symbol)
		t := Ticker{
			RawTicker:  raw,
			Exchange:   exchange,
			BaseAsset:  base,
			QuoteAsset: quote,
			Spread:     SpreadPct(raw.AskPrice, raw.BidPrice),
			Volatility: VolatilityPct(raw.HighPrice, raw.LowPrice),
			LastNum:    last,
			Ts:         now,
		}

		if fr, ok := bySymbol[raw.Symbol]; ok {
			rate := fr.LastFundingRate
			t.FundingRate = &rate
			if fr.OpenInterest != "" {
				oi := fr.OpenInterest
				t.OpenInterest = &oi
			}
		}
		out = append(out, t)
	}
	return out
}
