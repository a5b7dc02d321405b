package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// recordingStrategy rewrites to a fixed target and counts how often it is used.
type recordingStrategy struct {
	label  string
	target string
	calls  *[]string
}

func (r recordingStrategy) Name() string { return r.label }
func (r recordingStrategy) Rewrite(rawURL string) (string, error) {
	*r.calls = append(*r.calls, r.label)
	return r.target, nil
}

func TestChainFirstSuccessWins(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":42}`))
	}))
	defer good.Close()
	var untouchedHits int32
	untouched := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&untouchedHits, 1)
		w.Write([]byte(`{"value":99}`))
	}))
	defer untouched.Close()

	var calls []string
	f := New(nil,
		recordingStrategy{"first", bad.URL, &calls},
		recordingStrategy{"second", bad.URL, &calls},
		recordingStrategy{"third", good.URL, &calls},
		recordingStrategy{"fourth", untouched.URL, &calls},
	)

	var out struct {
		Value int `json:"value"`
	}
	if err := f.GetJSON(context.Background(), "https://example.com/api", &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out.Value != 42 {
		t.Errorf("expected the third strategy's body, got value %d", out.Value)
	}

	want := []string{"first", "second", "third"}
	if len(calls) != len(want) {
		t.Fatalf("strategy order: got %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("strategy order: got %v, want %v", calls, want)
		}
	}
	if atomic.LoadInt32(&untouchedHits) != 0 {
		t.Error("strategy after the first success must not run")
	}
}

func TestChainExhaustionAggregatesErrors(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer down.Close()

	var calls []string
	f := New(nil,
		recordingStrategy{"a", down.URL, &calls},
		recordingStrategy{"b", down.URL, &calls},
	)

	var out map[string]any
	err := f.GetJSON(context.Background(), "https://example.com/api", &out)
	if err == nil {
		t.Fatal("expected failure when every strategy is down")
	}
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("error must wrap ErrSourceUnavailable: %v", err)
	}
	if len(calls) != 2 {
		t.Errorf("every strategy should be attempted once: %v", calls)
	}
}

func TestNonJSONBodyIsAMiss(t *testing.T) {
	// relay answering 200 with an HTML interstitial
	html := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>rate limited</html>"))
	}))
	defer html.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[1,2,3]`))
	}))
	defer good.Close()

	var calls []string
	f := New(nil,
		recordingStrategy{"relay", html.URL, &calls},
		recordingStrategy{"direct", good.URL, &calls},
	)

	var out []int
	if err := f.GetJSON(context.Background(), "https://example.com/api", &out); err != nil {
		t.Fatalf("expected fallback past the HTML page: %v", err)
	}
	if len(out) != 3 {
		t.Errorf("got %v", out)
	}
}

func TestDecodeMismatchWrapsSourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected":"shape"}`))
	}))
	defer srv.Close()

	var calls []string
	f := New(nil, recordingStrategy{"direct", srv.URL, &calls})

	var out []int
	err := f.GetJSON(context.Background(), "https://example.com/api", &out)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("decode mismatch must read as an unavailable source: %v", err)
	}
}

func TestRelayRewriteEscapesTarget(t *testing.T) {
	r := Relay{Label: "relay-1", Prefix: "https://relay.example/raw?url="}
	got, err := r.Rewrite("https://api.binance.com/api/v3/ticker/24hr?symbol=BTCUSDT")
	if err != nil {
		t.Fatalf("Rewrite failed: %v", err)
	}
	want := "https://relay.example/raw?url=https%3A%2F%2Fapi.binance.com%2Fapi%2Fv3%2Fticker%2F24hr%3Fsymbol%3DBTCUSDT"
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	if _, err := (Relay{Label: "empty"}).Rewrite("https://x"); err == nil {
		t.Error("empty prefix must be rejected")
	}
}
