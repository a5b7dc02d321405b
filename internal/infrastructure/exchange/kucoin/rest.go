package kucoin

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

const Name = "KUCOIN"

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
		restURL = "https://api.kucoin.com"
	}
	return &Source{restURL: strings.TrimRight(restURL, "/"), f: f}
}

func (s *Source) Name() string { return Name }

type allTickersResp struct {
	Code string `json:"code"`
	Data struct {
		Time   int64 `json:"time"`
		Ticker []struct {
			Symbol     string `json:"symbol"` // "BTC-USDT"
			Last       string `json:"last"`
			High       string `json:"high"`
			Low        string `json:"low"`
			Buy        string `json:"buy"`
			Sell       string `json:"sell"`
			ChangeRate string `json:"changeRate"` // fraction
			VolValue   string `json:"volValue"`
		} `json:"ticker"`
	} `json:"data"`
}

func (s *Source) FetchTickers(ctx context.Context) ([]domain.RawTicker, error) {
	var resp allTickersResp
	if err := s.f.GetJSON(ctx, s.restURL+"/api/v1/market/allTickers", &resp); err != nil {
		return nil, err
	}
	if resp.Code != "200000" {
		return nil, fmt.Errorf("kucoin api error: code %s", resp.Code)
	}

	out := make([]domain.RawTicker, 0, len(resp.Data.Ticker))
	for _, t := range resp.Data.Ticker {
		out = append(out, domain.RawTicker{
			Symbol:             strings.ReplaceAll(t.Symbol, "-", ""),
			LastPrice:          t.Last,
			HighPrice:          t.High,
			LowPrice:           t.Low,
			BidPrice:           t.Buy,
			AskPrice:           t.Sell,
			QuoteVolume:        t.VolValue,
			PriceChangePercent: rateToPercent(t.ChangeRate),
		})
	}
	return out, nil
}

func rateToPercent(s string) string {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ""
	}
	return d.Mul(decimal.NewFromInt(100)).String()
}
