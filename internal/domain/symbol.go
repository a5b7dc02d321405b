package domain

import (
	"sort"
	"strings"
)

// QuoteOther is assigned when no configured quote code matches.
const QuoteOther = "OTHER"

// DefaultQuoteAssets are the quote codes tried when config does not override
// them. Order in this slice does not matter; QuoteSet sorts longest-first so
// USDT wins over USD.
var DefaultQuoteAssets = []string{
	"USDT", "USDC", "FDUSD", "TUSD", "BUSD", "DAI",
	"USD", "EUR", "GBP", "TRY", "BRL",
	"BTC", "ETH", "BNB",
}

// QuoteSet splits concatenated pair symbols against a fixed list of known
// quote codes.
type QuoteSet struct {
	codes []string // upper-cased, longest first
}

func NewQuoteSet(codes []string) QuoteSet {
	out := make([]string, 0, len(codes))
	seen := map[string]struct{}{}
	for _, c := range codes {
		u := strings.ToUpper(strings.TrimSpace(c))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	// Longest first so e.g. USDT is tried before USD would match inside it.
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return QuoteSet{codes: out}
}

func DefaultQuotes() QuoteSet { return NewQuoteSet(DefaultQuoteAssets) }

// Split returns (base, quote) for a concatenated symbol like "BTCUSDT".
// An unknown suffix is not an error: the symbol still renders, unclassified,
// as (symbol, QuoteOther) with the input passed through untouched. A symbol
// equal to a quote code (empty base) is rejected as a match and falls through.
func (q QuoteSet) Split(symbol string) (base, quote string) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	for _, code := range q.codes {
		if len(sym) > len(code) && strings.HasSuffix(sym, code) {
			return sym[:len(sym)-len(code)], code
		}
	}
	return symbol, QuoteOther
}
