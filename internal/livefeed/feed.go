package livefeed

import (
	"sync"
	"time"

	"marketdash/internal/domain"
)

type Kind int

const (
	KindLiquidation Kind = iota
	KindLog
	KindError
)

// Entry is one element of the feed window. Error entries share the window so
// a consumer can render stream failures inline with the data.
type Entry struct {
	Kind Kind
	Liq  domain.Liquidation // set when Kind == KindLiquidation
	Text string             // set for KindLog / KindError
	Ts   int64              // unix ms
}

// Feed is a fixed-capacity, most-recent-N window over a push stream, paired
// with a running aggregate (liquidation USD sum + event count) that reflects
// every event ever ingested, not just those currently windowed. Insertion past
// capacity evicts the oldest entry; eviction never corrects the aggregate.
type Feed struct {
	mu sync.Mutex

	buf   []Entry
	start int // index of the oldest entry
	size  int

	sumUSD float64
	count  int64
}

func New(capacity int) *Feed {
	if capacity <= 0 {
		capacity = 500
	}
	return &Feed{buf: make([]Entry, capacity)}
}

func (f *Feed) Push(e Entry) {
	if e.Ts == 0 {
		e.Ts = time.Now().UnixMilli()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.size < len(f.buf) {
		f.buf[(f.start+f.size)%len(f.buf)] = e
		f.size++
	} else {
		// full: overwrite the oldest slot and advance
		f.buf[f.start] = e
		f.start = (f.start + 1) % len(f.buf)
	}

	// Error entries are surfaced in the window but are not events; they do
	// not move the session aggregate.
	if e.Kind != KindError {
		f.count++
	}
	if e.Kind == KindLiquidation {
		f.sumUSD += e.Liq.USDValue
	}
}

func (f *Feed) PushLiquidation(l domain.Liquidation) {
	f.Push(Entry{Kind: KindLiquidation, Liq: l, Ts: l.Ts})
}

func (f *Feed) PushLog(text string) {
	f.Push(Entry{Kind: KindLog, Text: text})
}

// PushError records a push-source failure inline; ingestion continues.
func (f *Feed) PushError(text string) {
	f.Push(Entry{Kind: KindError, Text: text})
}

// Entries returns the window oldest-first.
func (f *Feed) Entries() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Entry, f.size)
	for i := 0; i < f.size; i++ {
		out[i] = f.buf[(f.start+i)%len(f.buf)]
	}
	return out
}

// Tail returns up to n entries, newest-first.
func (f *Feed) Tail(n int) []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	if n > f.size {
		n = f.size
	}
	out := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, f.buf[(f.start+f.size-1-i+len(f.buf))%len(f.buf)])
	}
	return out
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.size
}

// Totals reports the session aggregate: USD sum over liquidation entries and
// total ingested event count. Monotonic until Reset.
func (f *Feed) Totals() (sumUSD float64, count int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sumUSD, f.count
}

// Reset clears the window and the aggregate. Only an explicit session restart
// calls this; stopping ingestion retains the last values.
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.start, f.size = 0, 0
	f.sumUSD, f.count = 0, 0
}
