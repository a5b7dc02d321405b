package okx

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"marketdash/internal/application/port"
	"marketdash/internal/domain"
	"marketdash/internal/infrastructure/exchange"
	"marketdash/internal/infrastructure/transport"
)

const Name = "OKX"

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
		restURL = "https://www.okx.com"
	}
	return &Source{restURL: strings.TrimRight(restURL, "/"), f: f}
}

func (s *Source) Name() string { return Name }

type tickersResp struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		InstID    string `json:"instId"` // "BTC-USDT"
		Last      string `json:"last"`
		High24h   string `json:"high24h"`
		Low24h    string `json:"low24h"`
		BidPx     string `json:"bidPx"`
		AskPx     string `json:"askPx"`
		Open24h   string `json:"open24h"`
		VolCcy24h string `json:"volCcy24h"`
	} `json:"data"`
}

func (s *Source) FetchTickers(ctx context.Context) ([]domain.RawTicker, error) {
	var resp tickersResp
	url := s.restURL + "/api/v5/market/tickers?instType=SPOT"
	if err := s.f.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	if resp.Code != "0" {
		return nil, fmt.Errorf("okx api error: %s", resp.Msg)
	}

	out := make([]domain.RawTicker, 0, len(resp.Data))
	for _, t := range resp.Data {
		out = append(out, domain.RawTicker{
			// OKX separates pairs with a dash; collapse to the concatenated
			// form the symbol parser expects
			Symbol:      strings.ReplaceAll(t.InstID, "-", ""),
			LastPrice:   t.Last,
			HighPrice:   t.High24h,
			LowPrice:    t.Low24h,
			BidPrice:    t.BidPx,
			AskPrice:    t.AskPx,
			OpenPrice:   t.Open24h,
			QuoteVolume: t.VolCcy24h,
		})
	}
	return out, nil
}

type fundingResp struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		InstID          string `json:"instId"` // "BTC-USDT-SWAP"
		FundingRate     string `json:"fundingRate"`
		NextFundingTime string `json:"nextFundingTime"` // epoch ms as string
		FundingTime     string `json:"fundingTime"`
	} `json:"data"`
}

type openInterestResp struct {
	Code string `json:"code"`
	Data []struct {
		InstID string `json:"instId"`
		Oi     string `json:"oi"`
	} `json:"data"`
}

func (s *Source) FetchFunding(ctx context.Context) ([]domain.FundingRate, error) {
	var fr fundingResp
	url := s.restURL + "/api/v5/public/funding-rate?instId=ANY"
	if err := s.f.GetJSON(ctx, url, &fr); err != nil {
		return nil, err
	}
	if fr.Code != "0" {
		return nil, fmt.Errorf("okx api error: %s", fr.Msg)
	}

	// open interest is enrichment only; a failed call leaves the map empty
	oiByInst := make(map[string]string)
	var oi openInterestResp
	if err := s.f.GetJSON(ctx, s.restURL+"/api/v5/public/open-interest?instType=SWAP", &oi); err == nil && oi.Code == "0" {
		for _, d := range oi.Data {
			oiByInst[d.InstID] = d.Oi
		}
	}

	out := make([]domain.FundingRate, 0, len(fr.Data))
	for _, d := range fr.Data {
		next, _ := strconv.ParseInt(d.NextFundingTime, 10, 64)
		ts, _ := strconv.ParseInt(d.FundingTime, 10, 64)
		out = append(out, domain.FundingRate{
			Symbol:          swapSymbol(d.InstID),
			LastFundingRate: d.FundingRate,
			NextFundingTime: next,
			OpenInterest:    oiByInst[d.InstID],
			Time:            ts,
		})
	}
	return out, nil
}

// swapSymbol collapses a perpetual instrument id like "BTC-USDT-SWAP" to the
// spot form "BTCUSDT" so the funding merge keys match the ticker set.
func swapSymbol(instID string) string {
	return strings.ReplaceAll(strings.TrimSuffix(instID, "-SWAP"), "-", "")
}
