package bybit

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"marketdash/internal/application/port"
	"marketdash/internal/domain"
	"marketdash/internal/infrastructure/exchange"
	"marketdash/internal/infrastructure/transport"
)

const Name = "BYBIT"

func init() {
	exchange.Register(Name, func(ep exchange.Endpoints, f *transport.Fetcher) port.Source {
		return NewSource(ep.RestURL, f)
	})
}

// Source wraps the Bybit v5 market endpoints. Spot tickers and linear tickers
// share one response envelope.
type Source struct {
	restURL string
	f       *transport.Fetcher
}

func NewSource(restURL string, f *transport.Fetcher) *Source {
	if restURL == "" {
		restURL = "https://api.bybit.com"
	}
	return &Source{restURL: strings.TrimRight(restURL, "/"), f: f}
}

func (s *Source) Name() string { return Name }

type tickersResp struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Category string `json:"category"`
		List     []struct {
			Symbol       string `json:"symbol"`
			LastPrice    string `json:"lastPrice"`
			HighPrice    string `json:"highPrice24h"`
			LowPrice     string `json:"lowPrice24h"`
			Bid1Price    string `json:"bid1Price"`
			Ask1Price    string `json:"ask1Price"`
			PrevPrice    string `json:"prevPrice24h"`
			Price24hPcnt string `json:"price24hPcnt"`
			Turnover24h  string `json:"turnover24h"`
			// linear category only
			FundingRate     string `json:"fundingRate"`
			NextFundingTime string `json:"nextFundingTime"`
			OpenInterest    string `json:"openInterest"`
			MarkPrice       string `json:"markPrice"`
			IndexPrice      string `json:"indexPrice"`
		} `json:"list"`
	} `json:"result"`
}

func (s *Source) tickers(ctx context.Context, category string) (*tickersResp, error) {
	var resp tickersResp
	url := s.restURL + "/v5/market/tickers?category=" + category
	if err := s.f.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	if resp.RetCode != 0 {
		return nil, fmt.Errorf("bybit api error: %s", resp.RetMsg)
	}
	return &resp, nil
}

func (s *Source) FetchTickers(ctx context.Context) ([]domain.RawTicker, error) {
	resp, err := s.tickers(ctx, "spot")
	if err != nil {
		return nil, err
	}

	out := make([]domain.RawTicker, 0, len(resp.Result.List))
	for _, t := range resp.Result.List {
		out = append(out, domain.RawTicker{
			Symbol:             t.Symbol,
			LastPrice:          t.LastPrice,
			HighPrice:          t.HighPrice,
			LowPrice:           t.LowPrice,
			BidPrice:           t.Bid1Price,
			AskPrice:           t.Ask1Price,
			PrevClosePrice:     t.PrevPrice,
			QuoteVolume:        t.Turnover24h,
			PriceChangePercent: fractionToPercent(t.Price24hPcnt),
		})
	}
	return out, nil
}

func (s *Source) FetchFunding(ctx context.Context) ([]domain.FundingRate, error) {
	resp, err := s.tickers(ctx, "linear")
	if err != nil {
		return nil, err
	}

	out := make([]domain.FundingRate, 0, len(resp.Result.List))
	for _, t := range resp.Result.List {
		next, _ := strconv.ParseInt(t.NextFundingTime, 10, 64)
		out = append(out, domain.FundingRate{
			Symbol:          t.Symbol,
			MarkPrice:       t.MarkPrice,
			IndexPrice:      t.IndexPrice,
			LastFundingRate: t.FundingRate,
			NextFundingTime: next,
			OpenInterest:    t.OpenInterest,
		})
	}
	return out, nil
}

// fractionToPercent converts Bybit's fractional 24h change ("0.0123") to the
// common percent form ("1.23"), staying in decimal space.
func fractionToPercent(s string) string {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ""
	}
	return d.Mul(decimal.NewFromInt(100)).String()
}
