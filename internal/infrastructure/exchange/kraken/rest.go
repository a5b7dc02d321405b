package kraken

import (
	"context"
	"fmt"
	"strings"

	"marketdash/internal/application/port"
	"marketdash/internal/domain"
	"marketdash/internal/infrastructure/exchange"
	"marketdash/internal/infrastructure/transport"
)

const Name = "KRAKEN"

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
		restURL = "https://api.kraken.com"
	}
	return &Source{restURL: strings.TrimRight(restURL, "/"), f: f}
}

func (s *Source) Name() string { return Name }

// krakenPair is Kraken's positional ticker arrays: c=[last, lot], h/l=[today,
// 24h], a/b=[price, wholeLot, lot], o=today's open.
type krakenPair struct {
	Ask   []string `json:"a"`
	Bid   []string `json:"b"`
	Close []string `json:"c"`
	High  []string `json:"h"`
	Low   []string `json:"l"`
	Open  string   `json:"o"`
}

type tickerResp struct {
	Error  []string              `json:"error"`
	Result map[string]krakenPair `json:"result"`
}

func (s *Source) FetchTickers(ctx context.Context) ([]domain.RawTicker, error) {
	var resp tickerResp
	if err := s.f.GetJSON(ctx, s.restURL+"/0/public/Ticker", &resp); err != nil {
		return nil, err
	}
	if len(resp.Error) > 0 {
		return nil, fmt.Errorf("kraken api error: %s", strings.Join(resp.Error, "; "))
	}

	out := make([]domain.RawTicker, 0, len(resp.Result))
	for pair, t := range resp.Result {
		out = append(out, domain.RawTicker{
			Symbol:    normalizePair(pair),
			LastPrice: first(t.Close),
			HighPrice: second(t.High),
			LowPrice:  second(t.Low),
			BidPrice:  first(t.Bid),
			AskPrice:  first(t.Ask),
			OpenPrice: t.Open,
		})
	}
	return out, nil
}

// normalizePair strips Kraken's legacy X/Z asset-class prefixes so
// "XXBTZUSD" becomes "XBTUSD" and the suffix parser can classify it.
func normalizePair(pair string) string {
	p := strings.ToUpper(pair)
	if len(p) == 8 && p[0] == 'X' && p[4] == 'Z' {
		return p[1:4] + p[5:]
	}
	return p
}

func first(v []string) string {
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func second(v []string) string {
	if len(v) > 1 {
		return v[1]
	}
	return ""
}
