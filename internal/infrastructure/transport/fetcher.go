package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrSourceUnavailable means every strategy in the chain was exhausted.
var ErrSourceUnavailable = errors.New("source unavailable")

// Strategy wraps a target URL for one retrieval attempt. Strategies are tried
// strictly in declared order, sequentially; a later strategy starts only after
// the previous one has definitively failed.
type Strategy interface {
	Name() string
	Rewrite(rawURL string) (string, error)
}

// Direct requests the upstream as-is.
type Direct struct{}

func (Direct) Name() string                          { return "direct" }
func (Direct) Rewrite(rawURL string) (string, error) { return rawURL, nil }

// Relay rewrites the URL through a public CORS-style relay that must return
// the upstream body byte-for-byte.
type Relay struct {
	Label  string
	Prefix string // e.g. "https://corsproxy.io/?url="
}

func (r Relay) Name() string { return r.Label }

func (r Relay) Rewrite(rawURL string) (string, error) {
	if strings.TrimSpace(r.Prefix) == "" {
		return "", errors.New("relay prefix empty")
	}
	return r.Prefix + url.QueryEscape(rawURL), nil
}

// Fetcher runs an ordered fallback chain over the same URL, first success
// wins. No backoff, no retry within a strategy, no caching between calls;
// every call re-runs the chain from the top.
type Fetcher struct {
	client     *http.Client
	strategies []Strategy
}

func New(client *http.Client, strategies ...Strategy) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if len(strategies) == 0 {
		strategies = []Strategy{Direct{}}
	}
	return &Fetcher{client: client, strategies: strategies}
}

// NewChain builds the standard chain: direct first, then each relay prefix in
// configured order.
func NewChain(client *http.Client, relayPrefixes []string) *Fetcher {
	strategies := []Strategy{Direct{}}
	for i, p := range relayPrefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		strategies = append(strategies, Relay{Label: fmt.Sprintf("relay-%d", i+1), Prefix: p})
	}
	return New(client, strategies...)
}

// GetJSON fetches rawURL through the chain and unmarshals the first valid
// JSON body into out. Exhaustion fails with a single aggregate error naming
// the upstream, wrapping ErrSourceUnavailable.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, out any) error {
	body, err := f.get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		// parses as JSON but not as the expected shape: same outcome as an
		// unreachable source, the caller coerces to an empty set
		return fmt.Errorf("%w: %s: decode: %v", ErrSourceUnavailable, hostOf(rawURL), err)
	}
	return nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	var attempts []error
	for _, s := range f.strategies {
		body, err := f.tryOne(ctx, s, rawURL)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Debug().Str("strategy", s.Name()).Str("url", rawURL).Err(err).Msg("fetch strategy failed")
		attempts = append(attempts, fmt.Errorf("%s: %w", s.Name(), err))
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, hostOf(rawURL), errors.Join(attempts...))
}

func (f *Fetcher) tryOne(ctx context.Context, s Strategy, rawURL string) ([]byte, error) {
	target, err := s.Rewrite(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, truncate(body, 160))
	}
	// a relay can answer 200 with an HTML error page; treat that as a miss
	if !json.Valid(body) {
		return nil, errors.New("response is not JSON")
	}
	return body, nil
}

func hostOf(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	return rawURL
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
