package mexc

import (
	"context"
	"strings"

	"marketdash/internal/application/port"
	"marketdash/internal/domain"
	"marketdash/internal/infrastructure/exchange"
	"marketdash/internal/infrastructure/transport"
)

const Name = "MEXC"

func init() {
	exchange.Register(Name, func(ep exchange.Endpoints, f *transport.Fetcher) port.Source {
		return NewSource(ep.RestURL, f)
	})
}

// Source wraps MEXC's Binance-compatible v3 ticker endpoint.
type Source struct {
	restURL string
	f       *transport.Fetcher
}

func NewSource(restURL string, f *transport.Fetcher) *Source {
	if restURL == "" {
		restURL = "https://api.mexc.com"
	}
	return &Source{restURL: strings.TrimRight(restURL, "/"), f: f}
}

func (s *Source) Name() string { return Name }

type ticker24h struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	BidPrice           string `json:"bidPrice"`
	AskPrice           string `json:"askPrice"`
	OpenPrice          string `json:"openPrice"`
	PrevClosePrice     string `json:"prevClosePrice"`
	QuoteVolume        string `json:"quoteVolume"`
	PriceChangePercent string `json:"priceChangePercent"`
}

func (s *Source) FetchTickers(ctx context.Context) ([]domain.RawTicker, error) {
	var resp []ticker24h
	if err := s.f.GetJSON(ctx, s.restURL+"/api/v3/ticker/24hr", &resp); err != nil {
		return nil, err
	}

	out := make([]domain.RawTicker, 0, len(resp))
	for _, t := range resp {
		out = append(out, domain.RawTicker{
			Symbol:             t.Symbol,
			LastPrice:          t.LastPrice,
			HighPrice:          t.HighPrice,
			LowPrice:           t.LowPrice,
			BidPrice:           t.BidPrice,
			AskPrice:           t.AskPrice,
			OpenPrice:          t.OpenPrice,
			PrevClosePrice:     t.PrevClosePrice,
			QuoteVolume:        t.QuoteVolume,
			PriceChangePercent: t.PriceChangePercent,
		})
	}
	return out, nil
}
