package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketdash/internal/infrastructure/transport"
)

func newTestSource(t *testing.T, handler http.HandlerFunc) (*Source, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSource(srv.URL, srv.URL, transport.New(srv.Client())), srv
}

func TestFetchTickers(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/24hr" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`[
			{"symbol":"BTCUSDT","lastPrice":"45000.10","highPrice":"46000","lowPrice":"44000",
			 "bidPrice":"44999","askPrice":"45001","openPrice":"44500","prevClosePrice":"44490",
			 "quoteVolume":"1234567.89","priceChangePercent":"1.12","count":987654},
			{"symbol":"ETHUSDT","lastPrice":"3000","highPrice":"3100","lowPrice":"2900",
			 "bidPrice":"2999","askPrice":"3001","openPrice":"2950","prevClosePrice":"2940",
			 "quoteVolume":"7654321.01","priceChangePercent":"-0.50","count":123456}
		]`))
	})

	out, err := src.FetchTickers(context.Background())
	if err != nil {
		t.Fatalf("FetchTickers failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 tickers, got %d", len(out))
	}
	btc := out[0]
	if btc.Symbol != "BTCUSDT" || btc.LastPrice != "45000.10" {
		t.Errorf("first ticker: %+v", btc)
	}
	if btc.QuoteVolume != "1234567.89" || btc.Count != 987654 {
		t.Errorf("volume fields: %+v", btc)
	}
	if out[1].PriceChangePercent != "-0.50" {
		t.Errorf("change: got %s", out[1].PriceChangePercent)
	}
}

func TestFetchFunding(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fapi/v1/premiumIndex" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`[
			{"symbol":"BTCUSDT","markPrice":"45001.2","indexPrice":"45000.9",
			 "lastFundingRate":"0.00010000","interestRate":"0.00010000",
			 "nextFundingTime":1700000000000,"time":1699999000000}
		]`))
	})

	out, err := src.FetchFunding(context.Background())
	if err != nil {
		t.Fatalf("FetchFunding failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	fr := out[0]
	if fr.Symbol != "BTCUSDT" || fr.LastFundingRate != "0.00010000" {
		t.Errorf("funding record: %+v", fr)
	}
	if fr.NextFundingTime != 1700000000000 {
		t.Errorf("next funding time: %d", fr.NextFundingTime)
	}
}

func TestFetchKlinesPositionalRows(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("symbol query: %s", got)
		}
		if got := r.URL.Query().Get("limit"); got != "2" {
			t.Errorf("limit query: %s", got)
		}
		w.Write([]byte(`[
			[1699996400000,"44800","45200","44700","45000","321.5","x","y",1,"2","3","0"],
			[1700000000000,"45000","45100","44900","45050","123.4","x","y",1,"2","3","0"]
		]`))
	})

	out, err := src.FetchKlines(context.Background(), "btcusdt", "1h", 2)
	if err != nil {
		t.Fatalf("FetchKlines failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(out))
	}
	if out[0].OpenTime != 1699996400000 || out[0].Close != "45000" {
		t.Errorf("first candle: %+v", out[0])
	}
	if out[1].High != "45100" || out[1].Volume != "123.4" {
		t.Errorf("second candle: %+v", out[1])
	}
}

func TestFetchTickersUpstreamDown(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	if _, err := src.FetchTickers(context.Background()); err == nil {
		t.Fatal("expected error from a down upstream")
	}
}
