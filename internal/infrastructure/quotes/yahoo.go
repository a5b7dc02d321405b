package quotes

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"marketdash/internal/domain"
	"marketdash/internal/infrastructure/transport"
)

const Name = "YAHOO"

// YahooSource pulls equities/macro quotes from the keyless v8 chart endpoint,
// one request per configured symbol, and reshapes them into the common ticker
// model. Numeric vendor fields are stringified at the boundary so downstream
// sees the same string-priced shape as the exchange sources.
type YahooSource struct {
	baseURL string
	symbols []string
	f       *transport.Fetcher
}

func NewYahooSource(baseURL string, symbols []string, f *transport.Fetcher) *YahooSource {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	return &YahooSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		symbols: symbols,
		f:       f,
	}
}

func (s *YahooSource) Name() string { return Name }

type chartResp struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					High []*float64 `json:"high"`
					Low  []*float64 `json:"low"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (s *YahooSource) FetchTickers(ctx context.Context) ([]domain.RawTicker, error) {
	out := make([]domain.RawTicker, 0, len(s.symbols))
	var lastErr error
	for _, sym := range s.symbols {
		t, err := s.fetchOne(ctx, sym)
		if err != nil {
			log.Warn().Str("source", Name).Str("symbol", sym).Err(err).Msg("quote fetch failed")
			lastErr = err
			continue
		}
		out = append(out, t)
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

func (s *YahooSource) fetchOne(ctx context.Context, symbol string) (domain.RawTicker, error) {
	url := s.baseURL + "/v8/finance/chart/" + symbol + "?interval=5m&range=1d&includePrePost=false"

	var resp chartResp
	if err := s.f.GetJSON(ctx, url, &resp); err != nil {
		return domain.RawTicker{}, err
	}
	if resp.Chart.Error != nil {
		return domain.RawTicker{}, &apiError{code: resp.Chart.Error.Code, desc: resp.Chart.Error.Description}
	}
	if len(resp.Chart.Result) == 0 {
		return domain.RawTicker{}, &apiError{code: "empty", desc: "no result for " + symbol}
	}

	r := resp.Chart.Result[0]
	high, low := dayRange(r.Indicators.Quote)

	// append the quote currency so the suffix parser classifies equities the
	// same way as exchange pairs ("SPY" + "USD" -> SPY/USD)
	sym := strings.ToUpper(r.Meta.Symbol)
	if cur := strings.ToUpper(strings.TrimSpace(r.Meta.Currency)); cur != "" {
		sym += cur
	}

	return domain.RawTicker{
		Symbol:         sym,
		LastPrice:      fstr(r.Meta.RegularMarketPrice),
		HighPrice:      fstr(high),
		LowPrice:       fstr(low),
		PrevClosePrice: fstr(r.Meta.ChartPreviousClose),
	}, nil
}

func dayRange(quotes []struct {
	High []*float64 `json:"high"`
	Low  []*float64 `json:"low"`
}) (high, low float64) {
	for _, q := range quotes {
		for _, h := range q.High {
			if h != nil && *h > high {
				high = *h
			}
		}
		for _, l := range q.Low {
			if l != nil && (low == 0 || *l < low) {
				low = *l
			}
		}
	}
	return high, low
}

func fstr(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type apiError struct {
	code string
	desc string
}

func (e *apiError) Error() string { return "yahoo api error: " + e.code + ": " + e.desc }
