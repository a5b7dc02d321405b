package bitget

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"marketdash/internal/application/port"
	"marketdash/internal/domain"
	"marketdash/internal/infrastructure/exchange"
	"marketdash/internal/infrastructure/transport"
)

const Name = "BITGET"

func init() {
	exchange.Register(Name, func(ep exchange.Endpoints, f *transport.Fetcher) port.Source {
		return NewSource(ep.RestURL, f)
	})
}

type Source struct {
	restURL string
	f       *transport.Fetcher
}

func NewSource(restURL string, f *transport.Fetcher) *Source {
	if restURL == "" {
		restURL = "https://api.bitget.com"
	}
	return &Source{restURL: strings.TrimRight(restURL, "/"), f: f}
}

func (s *Source) Name() string { return Name }

type tickersResp struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		Symbol     string `json:"symbol"` // "BTCUSDT"
		LastPr     string `json:"lastPr"`
		High24h    string `json:"high24h"`
		Low24h     string `json:"low24h"`
		BidPr      string `json:"bidPr"`
		AskPr      string `json:"askPr"`
		Open       string `json:"open"`
		Change24h  string `json:"change24h"` // fraction
		USDTVolume string `json:"usdtVolume"`
	} `json:"data"`
}

func (s *Source) FetchTickers(ctx context.Context) ([]domain.RawTicker, error) {
	var resp tickersResp
	if err := s.f.GetJSON(ctx, s.restURL+"/api/v2/spot/market/tickers", &resp); err != nil {
		return nil, err
	}
	if resp.Code != "00000" {
		return nil, fmt.Errorf("bitget api error: %s", resp.Msg)
	}

	out := make([]domain.RawTicker, 0, len(resp.Data))
	for _, t := range resp.Data {
		change := ""
		if d, err := decimal.NewFromString(t.Change24h); err == nil {
			change = d.Mul(decimal.NewFromInt(100)).String()
		}
		out = append(out, domain.RawTicker{
			Symbol:             t.Symbol,
			LastPrice:          t.LastPr,
			HighPrice:          t.High24h,
			LowPrice:           t.Low24h,
			BidPrice:           t.BidPr,
			AskPrice:           t.AskPr,
			OpenPrice:          t.Open,
			QuoteVolume:        t.USDTVolume,
			PriceChangePercent: change,
		})
	}
	return out, nil
}
