package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"marketdash/internal/application/port"
	"marketdash/internal/domain"
	"marketdash/internal/infrastructure/exchange"
	"marketdash/internal/infrastructure/transport"
)

const Name = "BINANCE"

func init() {
	exchange.Register(Name, func(ep exchange.Endpoints, f *transport.Fetcher) port.Source {
		return NewSource(ep.RestURL, ep.FuturesURL, f)
	})
}

// Source pulls the spot 24h ticker set and the futures premium index
// (funding) from Binance's keyless endpoints.
type Source struct {
	restURL    string
	futuresURL string
	f          *transport.Fetcher
}

func NewSource(restURL, futuresURL string, f *transport.Fetcher) *Source {
	if restURL == "" {
		restURL = "https://api.binance.com"
	}
	if futuresURL == "" {
		futuresURL = "https://fapi.binance.com"
	}
	return &Source{
		restURL:    strings.TrimRight(restURL, "/"),
		futuresURL: strings.TrimRight(futuresURL, "/"),
		f:          f,
	}
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
	Count              int64  `json:"count"`
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
			Count:              t.Count,
		})
	}
	return out, nil
}

type premiumIndex struct {
	Symbol          string `json:"symbol"`
	MarkPrice       string `json:"markPrice"`
	IndexPrice      string `json:"indexPrice"`
	LastFundingRate string `json:"lastFundingRate"`
	InterestRate    string `json:"interestRate"`
	NextFundingTime int64  `json:"nextFundingTime"`
	Time            int64  `json:"time"`
}

func (s *Source) FetchFunding(ctx context.Context) ([]domain.FundingRate, error) {
	var resp []premiumIndex
	if err := s.f.GetJSON(ctx, s.futuresURL+"/fapi/v1/premiumIndex", &resp); err != nil {
		return nil, err
	}

	out := make([]domain.FundingRate, 0, len(resp))
	for _, p := range resp {
		out = append(out, domain.FundingRate{
			Symbol:          p.Symbol,
			MarkPrice:       p.MarkPrice,
			IndexPrice:      p.IndexPrice,
			LastFundingRate: p.LastFundingRate,
			NextFundingTime: p.NextFundingTime,
			InterestRate:    p.InterestRate,
			Time:            p.Time,
		})
	}
	return out, nil
}

// FetchKlines returns candles for the commentary price history. Binance klines
// come as positional arrays of mixed number/string values.
func (s *Source) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]domain.Kline, error) {
	if interval == "" {
		interval = "1h"
	}
	if limit <= 0 {
		limit = 24
	}
	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&limit=%d",
		s.restURL, strings.ToUpper(symbol), interval, limit)

	var resp [][]json.RawMessage
	if err := s.f.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Kline, 0, len(resp))
	for _, row := range resp {
		if len(row) < 6 {
			continue
		}
		var k domain.Kline
		_ = json.Unmarshal(row[0], &k.OpenTime)
		_ = json.Unmarshal(row[1], &k.Open)
		_ = json.Unmarshal(row[2], &k.High)
		_ = json.Unmarshal(row[3], &k.Low)
		_ = json.Unmarshal(row[4], &k.Close)
		_ = json.Unmarshal(row[5], &k.Volume)
		out = append(out, k)
	}
	return out, nil
}
