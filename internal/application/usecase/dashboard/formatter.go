package dashboard

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"marketdash/internal/livefeed"
)

const (
	ansiReset    = "\033[0m"
	ansiRed      = "\033[31m"
	ansiGreen    = "\033[32m"
	ansiYellow   = "\033[33m"
	ansiCyan     = "\033[36m"
	ansiDim      = "\033[2m"
	ansiBold     = "\033[1m"
	ansiClearEOL = "\033[K"
)

func colorize(s, c string) string { return c + s + ansiReset }

type Formatter struct {
	FeedTail int // liquidation lines shown under the table
}

func NewFormatter(feedTail int) *Formatter {
	if feedTail <= 0 {
		feedTail = 8
	}
	return &Formatter{FeedTail: feedTail}
}

// RenderFrame draws the full dashboard: header, ticker table, liquidation
// tail with session totals, log tail, venue status line.
func (f *Formatter) RenderFrame(rows []Row, total, page int, view ViewOptions,
	status map[string]string, events, logs *livefeed.Feed) string {

	var sb strings.Builder

	sb.WriteString(colorize("[MARKETDASH] ", ansiBold))
	sb.WriteString(colorize(fmt.Sprintf("sort=%s/%s  filter=%s  page %d (%d rows)",
		view.Sort, view.Order, orAll(view.Quote), page+1, total), ansiDim))
	sb.WriteString("\n\n")

	sb.WriteString(colorize(fmt.Sprintf("%-14s %-6s %12s %9s %9s %9s %11s %12s  %s",
		"SYMBOL", "QUOTE", "LAST", "CHG%", "SPREAD%", "VOLA%", "FUNDING", "OPEN INT", "VENUE"), ansiDim))
	sb.WriteString("\n")

	for _, r := range rows {
		lastCol := ansiYellow
		switch r.Dir {
		case DirUp:
			lastCol = ansiGreen
		case DirDown:
			lastCol = ansiRed
		}

		chg := r.PriceChangePercent
		chgCol := ansiYellow
		if v, err := strconv.ParseFloat(chg, 64); err == nil {
			if v > 0 {
				chgCol = ansiGreen
			} else if v < 0 {
				chgCol = ansiRed
			}
		} else {
			chg = "--"
		}

		funding := "--"
		if r.FundingRate != nil {
			funding = *r.FundingRate
		}
		oi := "--"
		if r.OpenInterest != nil {
			oi = *r.OpenInterest
		}

		sb.WriteString(fmt.Sprintf("%-14s %-6s ", r.BaseAsset+"/"+r.QuoteAsset, r.QuoteAsset))
		sb.WriteString(colorize(fmt.Sprintf("%12s", trim(r.LastPrice, 12)), lastCol))
		sb.WriteString(" ")
		sb.WriteString(colorize(fmt.Sprintf("%9s", trim(chg, 9)), chgCol))
		sb.WriteString(fmt.Sprintf(" %9.4f %9.4f", r.Spread, r.Volatility))
		sb.WriteString(fmt.Sprintf(" %11s %12s  ", trim(funding, 11), trim(oi, 12)))
		sb.WriteString(colorize(r.Exchange, ansiCyan))
		sb.WriteString("\n")
	}
	if len(rows) == 0 {
		sb.WriteString(colorize("  (no data)\n", ansiDim))
	}

	sumUSD, count := events.Totals()
	sb.WriteString("\n")
	sb.WriteString(colorize(fmt.Sprintf("LIQUIDATIONS  session: $%.0f over %d events", sumUSD, count), ansiBold))
	sb.WriteString("\n")
	for _, e := range events.Tail(f.FeedTail) {
		sb.WriteString(f.feedLine(e))
		sb.WriteString("\n")
	}

	if logs.Len() > 0 {
		sb.WriteString("\n")
		for _, e := range logs.Tail(4) {
			sb.WriteString(colorize("» "+e.Text, ansiDim))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(f.statusLine(status))
	sb.WriteString("\n")
	return sb.String()
}

// RenderLive is the single overwriting line between frames: newest
// liquidation plus session totals.
func (f *Formatter) RenderLive(e livefeed.Entry, events *livefeed.Feed) string {
	sumUSD, count := events.Totals()
	return "\r" + f.feedLine(e) +
		colorize(fmt.Sprintf("  [session $%.0f / %d]", sumUSD, count), ansiDim) +
		ansiClearEOL
}

func (f *Formatter) feedLine(e livefeed.Entry) string {
	switch e.Kind {
	case livefeed.KindLiquidation:
		sideCol := ansiRed
		if e.Liq.Side == "BUY" {
			sideCol = ansiGreen
		}
		return fmt.Sprintf("  %s %s %s %s @ %s ($%.0f)",
			colorize(e.Liq.Exchange, ansiCyan), e.Liq.Symbol,
			colorize(e.Liq.Side, sideCol), e.Liq.Qty, e.Liq.Price, e.Liq.USDValue)
	case livefeed.KindError:
		return colorize("  ! "+e.Text, ansiRed)
	default:
		return colorize("  » "+e.Text, ansiDim)
	}
}

func (f *Formatter) statusLine(status map[string]string) string {
	venues := make([]string, 0, len(status))
	for v := range status {
		venues = append(venues, v)
	}
	sort.Strings(venues)

	var sb strings.Builder
	sb.WriteString(colorize("VENUES ", ansiDim))
	for i, v := range venues {
		if i > 0 {
			sb.WriteString(colorize(" | ", ansiDim))
		}
		col := ansiGreen
		if status[v] != StatusOK {
			col = ansiRed
		}
		sb.WriteString(v + ":" + colorize(status[v], col))
	}
	return sb.String()
}

func orAll(s string) string {
	if s == "" {
		return "*"
	}
	return s
}

func trim(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
