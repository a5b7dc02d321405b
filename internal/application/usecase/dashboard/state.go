package dashboard

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"marketdash/internal/domain"
)

type Dir int

const (
	DirSame Dir = 0
	DirUp   Dir = +1
	DirDown Dir = -1
)

// VenueStatus is what the status line renders per venue.
const (
	StatusOK      = "OK"
	StatusOffline = "OFFLINE"
)

type ViewOptions struct {
	Sort     string // symbol|last|change|volume|spread|volatility
	Order    string // asc|desc
	Quote    string // quote-asset filter, empty = all
	Page     int
	PageSize int
}

// Row is one rendered table line: a ticker plus its tick direction relative
// to the previous cycle.
type Row struct {
	domain.Ticker
	Dir Dir
}

// State owns the latest enriched ticker set. Each fetch cycle replaces the
// set wholesale; a cycle carrying a stale generation token is discarded so a
// late response can never overwrite newer data.
type State struct {
	mu sync.Mutex

	gen      int64 // latest generation issued
	tickers  []domain.Ticker
	prevLast map[string]float64 // exchange:symbol -> last, for direction
	dirs     map[string]Dir
	status   map[string]string // venue -> StatusOK / StatusOffline
	view     ViewOptions
}

func NewState(view ViewOptions) *State {
	if view.PageSize <= 0 {
		view.PageSize = 25
	}
	return &State{
		prevLast: make(map[string]float64),
		dirs:     make(map[string]Dir),
		status:   make(map[string]string),
		view:     view,
	}
}

// NextGen issues a new fetch-cycle generation. Issuing invalidates every
// earlier in-flight cycle.
func (s *State) NextGen() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// Replace installs a cycle's result. Returns false when gen is stale, i.e. a
// newer cycle was issued while this one was in flight.
func (s *State) Replace(gen int64, tickers []domain.Ticker, status map[string]string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return false
	}

	dirs := make(map[string]Dir, len(tickers))
	nextLast := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		key := t.Exchange + ":" + t.Symbol
		nextLast[key] = t.LastNum
		prev, seen := s.prevLast[key]
		switch {
		case !seen || t.LastNum == prev:
			dirs[key] = DirSame
		case t.LastNum > prev:
			dirs[key] = DirUp
		default:
			dirs[key] = DirDown
		}
	}

	s.tickers = tickers
	s.prevLast = nextLast
	s.dirs = dirs
	for venue, st := range status {
		s.status[venue] = st
	}
	return true
}

// View projects the current set through filter, sort, and pagination.
// Returns the page rows, the filtered total, and the clamped page index.
func (s *State) View() (rows []Row, total, page int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := make([]Row, 0, len(s.tickers))
	for _, t := range s.tickers {
		if s.view.Quote != "" && t.QuoteAsset != s.view.Quote {
			continue
		}
		filtered = append(filtered, Row{Ticker: t, Dir: s.dirs[t.Exchange+":"+t.Symbol]})
	}
	total = len(filtered)

	s.sortRows(filtered)

	page = s.view.Page
	maxPage := 0
	if total > 0 {
		maxPage = (total - 1) / s.view.PageSize
	}
	if page > maxPage {
		page = maxPage
	}
	if page < 0 {
		page = 0
	}
	lo := page * s.view.PageSize
	hi := lo + s.view.PageSize
	if hi > total {
		hi = total
	}
	if lo > total {
		lo = total
	}
	return filtered[lo:hi], total, page
}

func (s *State) sortRows(rows []Row) {
	asc := s.view.Order == "asc"
	less := func(i, j int) bool { return rows[i].Symbol < rows[j].Symbol }

	switch s.view.Sort {
	case "last":
		less = func(i, j int) bool { return rows[i].LastNum < rows[j].LastNum }
	case "change":
		less = func(i, j int) bool {
			return parseF(rows[i].PriceChangePercent) < parseF(rows[j].PriceChangePercent)
		}
	case "volume":
		less = func(i, j int) bool {
			return parseF(rows[i].QuoteVolume) < parseF(rows[j].QuoteVolume)
		}
	case "spread":
		less = func(i, j int) bool { return rows[i].Spread < rows[j].Spread }
	case "volatility":
		less = func(i, j int) bool { return rows[i].Volatility < rows[j].Volatility }
	}

	if !asc {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(rows, less)
}

// SetView swaps view options at runtime (sort key, filter, page).
func (s *State) SetView(view ViewOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if view.PageSize <= 0 {
		view.PageSize = s.view.PageSize
	}
	view.Quote = strings.ToUpper(strings.TrimSpace(view.Quote))
	s.view = view
}

func (s *State) ViewOptions() ViewOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Status returns a copy of the per-venue status map.
func (s *State) Status() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.status))
	for k, v := range s.status {
		out[k] = v
	}
	return out
}

func parseF(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
