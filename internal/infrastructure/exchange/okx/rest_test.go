package okx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketdash/internal/infrastructure/transport"
)

func newTestSource(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSource(srv.URL, transport.New(srv.Client()))
}

func TestFetchTickers(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v5/market/tickers" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("instType"); got != "SPOT" {
			t.Errorf("instType query: %s", got)
		}
		w.Write([]byte(`{"code":"0","msg":"","data":[
			{"instId":"BTC-USDT","last":"45000","high24h":"46000","low24h":"44000",
			 "bidPx":"44999","askPx":"45001","open24h":"44500","volCcy24h":"123456.7"}
		]}`))
	})

	out, err := src.FetchTickers(context.Background())
	if err != nil {
		t.Fatalf("FetchTickers failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 ticker, got %d", len(out))
	}
	tk := out[0]
	if tk.Symbol != "BTCUSDT" {
		t.Errorf("dashed pair not collapsed: %s", tk.Symbol)
	}
	if tk.LastPrice != "45000" || tk.AskPrice != "45001" {
		t.Errorf("ticker: %+v", tk)
	}
}

func TestFetchFunding(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v5/public/funding-rate":
			w.Write([]byte(`{"code":"0","msg":"","data":[
				{"instId":"BTC-USDT-SWAP","fundingRate":"0.0001",
				 "nextFundingTime":"1700000000000","fundingTime":"1699971200000"},
				{"instId":"ETH-USDT-SWAP","fundingRate":"-0.00005",
				 "nextFundingTime":"1700000000000","fundingTime":"1699971200000"}
			]}`))
		case "/api/v5/public/open-interest":
			w.Write([]byte(`{"code":"0","data":[
				{"instId":"BTC-USDT-SWAP","oi":"81234.5"}
			]}`))
		default:
			http.NotFound(w, r)
		}
	})

	out, err := src.FetchFunding(context.Background())
	if err != nil {
		t.Fatalf("FetchFunding failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}

	bysym := map[string]int{}
	for i, fr := range out {
		bysym[fr.Symbol] = i
	}
	btc, ok := bysym["BTCUSDT"]
	if !ok {
		t.Fatalf("swap instrument id not collapsed to the spot symbol: %+v", out)
	}
	if out[btc].LastFundingRate != "0.0001" || out[btc].OpenInterest != "81234.5" {
		t.Errorf("BTCUSDT record: %+v", out[btc])
	}
	if out[btc].NextFundingTime != 1700000000000 {
		t.Errorf("next funding time parsed from string: %d", out[btc].NextFundingTime)
	}

	eth := out[bysym["ETHUSDT"]]
	if eth.OpenInterest != "" {
		t.Errorf("no open-interest record supplied, got %q", eth.OpenInterest)
	}
}

func TestFetchFundingToleratesOpenInterestFailure(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v5/public/funding-rate":
			w.Write([]byte(`{"code":"0","msg":"","data":[
				{"instId":"BTC-USDT-SWAP","fundingRate":"0.0001",
				 "nextFundingTime":"1700000000000","fundingTime":"1699971200000"}
			]}`))
		default:
			http.Error(w, "down", http.StatusServiceUnavailable)
		}
	})

	out, err := src.FetchFunding(context.Background())
	if err != nil {
		t.Fatalf("funding must survive an open-interest outage: %v", err)
	}
	if len(out) != 1 || out[0].OpenInterest != "" {
		t.Errorf("got %+v", out)
	}
}

func TestFetchFundingAPIError(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"50011","msg":"rate limit","data":[]}`))
	})

	if _, err := src.FetchFunding(context.Background()); err == nil {
		t.Fatal("expected error for non-zero code")
	}
}

func TestSwapSymbol(t *testing.T) {
	cases := []struct{ in, want string }{
		{"BTC-USDT-SWAP", "BTCUSDT"},
		{"ETH-USD-SWAP", "ETHUSD"},
		{"BTC-USDT", "BTCUSDT"},
	}
	for _, tc := range cases {
		if got := swapSymbol(tc.in); got != tc.want {
			t.Errorf("swapSymbol(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
