package gate

import (
	"context"
	"strings"

	"marketdash/internal/application/port"
	"marketdash/internal/domain"
	"marketdash/internal/infrastructure/exchange"
	"marketdash/internal/infrastructure/transport"
)

const Name = "GATE"

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
		restURL = "https://api.gateio.ws"
	}
	return &Source{restURL: strings.TrimRight(restURL, "/"), f: f}
}

func (s *Source) Name() string { return Name }

type spotTicker struct {
	CurrencyPair     string `json:"currency_pair"` // "BTC_USDT"
	Last             string `json:"last"`
	High24h          string `json:"high_24h"`
	Low24h           string `json:"low_24h"`
	HighestBid       string `json:"highest_bid"`
	LowestAsk        string `json:"lowest_ask"`
	ChangePercentage string `json:"change_percentage"`
	QuoteVolume      string `json:"quote_volume"`
}

func (s *Source) FetchTickers(ctx context.Context) ([]domain.RawTicker, error) {
	var resp []spotTicker
	if err := s.f.GetJSON(ctx, s.restURL+"/api/v4/spot/tickers", &resp); err != nil {
		return nil, err
	}

	out := make([]domain.RawTicker, 0, len(resp))
	for _, t := range resp {
		out = append(out, domain.RawTicker{
			Symbol:             strings.ReplaceAll(t.CurrencyPair, "_", ""),
			LastPrice:          t.Last,
			HighPrice:          t.High24h,
			LowPrice:           t.Low24h,
			BidPrice:           t.HighestBid,
			AskPrice:           t.LowestAsk,
			QuoteVolume:        t.QuoteVolume,
			PriceChangePercent: t.ChangePercentage,
		})
	}
	return out, nil
}
