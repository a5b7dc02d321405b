package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"marketdash/internal/application/port"
	"marketdash/internal/domain"
	"marketdash/internal/livefeed"
)

// Commentator produces one line of free-form text for a snapshot prompt. The
// AI client satisfies this; tests inject a fake.
type Commentator interface {
	Enabled() bool
	Complete(ctx context.Context, prompt string) (string, error)
}

type ServiceDeps struct {
	Sources         []port.Source
	Stream          port.LiquidationFeed // nil disables the live feed
	Repo            port.Repository
	Sink            port.Sink
	Commentator     Commentator // nil disables commentary
	Normalizer      *domain.Normalizer
	RefreshEvery    time.Duration
	SnapshotEvery   time.Duration // interval between scrollback summary lines
	CommentaryEvery int           // cycles between commentary calls, 0 disables
	FeedCapacity    int
	LogCapacity     int
	View            ViewOptions
	PersistRows     int // enriched rows persisted per cycle (top of view)
}

type Service struct {
	deps   ServiceDeps
	st     *State
	fmt    *Formatter
	events *livefeed.Feed // liquidations + stream errors
	logs   *livefeed.Feed // status/commentary lines
}

type cycleResult struct {
	gen     int64
	tickers []domain.Ticker
	status  map[string]string
}

func NewService(deps ServiceDeps) *Service {
	if deps.RefreshEvery <= 0 {
		deps.RefreshEvery = 10 * time.Second
	}
	if deps.SnapshotEvery <= 0 {
		deps.SnapshotEvery = time.Minute
	}
	if deps.PersistRows <= 0 {
		deps.PersistRows = deps.View.PageSize
	}
	return &Service{
		deps:   deps,
		st:     NewState(deps.View),
		fmt:    NewFormatter(8),
		events: livefeed.New(deps.FeedCapacity),
		logs:   livefeed.New(deps.LogCapacity),
	}
}

// Feeds exposes the live windows (for tests and alternative frontends).
func (s *Service) Feeds() (events, logs *livefeed.Feed) { return s.events, s.logs }

func (s *Service) Run(ctx context.Context) error {
	if len(s.deps.Sources) == 0 {
		return errors.New("no sources")
	}

	var stream <-chan port.StreamEvent
	if s.deps.Stream != nil {
		ch, err := s.deps.Stream.Subscribe(ctx)
		if err != nil {
			// degraded but alive: the table still works without the stream
			log.Error().Err(err).Msg("liquidation stream subscribe failed")
			s.events.PushError("stream unavailable: " + err.Error())
		} else {
			stream = ch
			log.Info().Str("stream", s.deps.Stream.Name()).Msg("liquidation stream started")
		}
	}

	results := make(chan cycleResult, 4)

	refresh := time.NewTicker(s.deps.RefreshEvery)
	defer refresh.Stop()

	snapshot := time.NewTicker(s.deps.SnapshotEvery)
	defer snapshot.Stop()

	// first cycle immediately
	go s.fetchCycle(ctx, s.st.NextGen(), results)

	cycles := 0
	for {
		select {
		case <-ctx.Done():
			_ = s.deps.Sink.NewLine()
			return ctx.Err()

		case <-refresh.C:
			go s.fetchCycle(ctx, s.st.NextGen(), results)

		case <-snapshot.C:
			s.writeSnapshot(time.Now())

		case res := <-results:
			if !s.st.Replace(res.gen, res.tickers, res.status) {
				log.Debug().Int64("gen", res.gen).Msg("stale fetch cycle discarded")
				continue
			}
			cycles++
			s.renderFrame(ctx)
			if s.deps.CommentaryEvery > 0 && s.deps.Commentator != nil &&
				s.deps.Commentator.Enabled() && cycles%s.deps.CommentaryEvery == 0 {
				go s.commentary(ctx)
			}

		case ev, ok := <-stream:
			if !ok {
				stream = nil
				s.events.PushError("stream closed")
				continue
			}
			s.onStreamEvent(ctx, ev)
		}
	}
}

// fetchCycle pulls every venue once and ships the normalized union back to
// the select loop. Venues are independent; a venue failing yields an empty
// contribution and an OFFLINE flag, never an aborted cycle.
func (s *Service) fetchCycle(ctx context.Context, gen int64, out chan<- cycleResult) {
	res := cycleResult{gen: gen, status: make(map[string]string, len(s.deps.Sources))}

	for _, src := range s.deps.Sources {
		raws, err := src.FetchTickers(ctx)
		if err != nil {
			log.Warn().Str("venue", src.Name()).Err(err).Msg("ticker fetch failed")
			res.status[src.Name()] = StatusOffline
			s.logs.PushLog(src.Name() + " offline: " + trimErr(err))
			continue
		}
		res.status[src.Name()] = StatusOK

		var funding []domain.FundingRate
		if fs, ok := src.(port.FundingSource); ok {
			funding, err = fs.FetchFunding(ctx)
			if err != nil {
				// funding is enrichment, not a reason to drop the venue
				log.Warn().Str("venue", src.Name()).Err(err).Msg("funding fetch failed")
				funding = nil
			}
		}

		res.tickers = append(res.tickers, s.deps.Normalizer.Normalize(src.Name(), raws, funding)...)
	}

	select {
	case out <- res:
	case <-ctx.Done():
	}
}

func (s *Service) renderFrame(ctx context.Context) {
	rows, total, page := s.st.View()
	frame := s.fmt.RenderFrame(rows, total, page, s.st.ViewOptions(), s.st.Status(), s.events, s.logs)
	_ = s.deps.Sink.WriteFrame(frame)

	if s.deps.Repo == nil {
		return
	}
	now := time.Now().UnixMilli()
	_ = s.deps.Repo.InsertSnapshot(ctx, now, frame)
	n := s.deps.PersistRows
	if n > len(rows) {
		n = len(rows)
	}
	for _, r := range rows[:n] {
		_ = s.deps.Repo.UpsertTicker(ctx, r.Ticker)
	}
}

// writeSnapshot appends one summary line to the scrollback so a session
// leaves a periodic trace outside the constantly overwritten frame.
func (s *Service) writeSnapshot(now time.Time) {
	_, total, _ := s.st.View()
	sumUSD, count := s.events.Totals()
	line := fmt.Sprintf("%d rows tracked, session liquidations $%.0f over %d events",
		total, sumUSD, count)
	_ = s.deps.Sink.WriteSnapshot(now, line)
}

func (s *Service) onStreamEvent(ctx context.Context, ev port.StreamEvent) {
	if ev.Err != "" {
		s.events.PushError(ev.Err)
		_ = s.deps.Sink.WriteLive(s.fmt.RenderLive(livefeed.Entry{Kind: livefeed.KindError, Text: ev.Err}, s.events))
		return
	}
	if ev.Liquidation == nil {
		return
	}

	l := *ev.Liquidation
	s.events.PushLiquidation(l)
	_ = s.deps.Sink.WriteLive(s.fmt.RenderLive(livefeed.Entry{Kind: livefeed.KindLiquidation, Liq: l}, s.events))

	if s.deps.Repo != nil {
		_ = s.deps.Repo.InsertLiquidation(ctx, l)
		sum, count := s.events.Totals()
		_ = s.deps.Repo.UpsertSessionStats(ctx, sum, count, time.Now().UnixMilli())
	}
}

// commentary asks the injected client for one line on the visible set and
// appends the reply to the log window. Failures become log lines too.
func (s *Service) commentary(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, 45*time.Second)
	defer cancel()

	text, err := s.deps.Commentator.Complete(cctx, s.buildPrompt(cctx))
	if err != nil {
		log.Warn().Err(err).Msg("commentary failed")
		s.logs.PushLog("commentary unavailable: " + trimErr(err))
		return
	}
	s.logs.PushLog("AI: " + text)
}

func (s *Service) buildPrompt(ctx context.Context) string {
	rows, _, _ := s.st.View()
	if len(rows) > 10 {
		rows = rows[:10]
	}

	var sb strings.Builder
	sb.WriteString("You are a terse market desk assistant. One sentence on the state of these markets.\n")
	for _, r := range rows {
		fmt.Fprintf(&sb, "%s %s last=%s chg=%s%% spread=%.4f%% vol=%.2f%%",
			r.Exchange, r.Symbol, r.LastPrice, r.PriceChangePercent, r.Spread, r.Volatility)
		if r.FundingRate != nil {
			fmt.Fprintf(&sb, " funding=%s", *r.FundingRate)
		}
		sb.WriteString("\n")
	}

	// recent price history from the first venue that serves candles
	if len(rows) > 0 {
		for _, src := range s.deps.Sources {
			ks, ok := src.(port.KlineSource)
			if !ok {
				continue
			}
			klines, err := ks.FetchKlines(ctx, rows[0].Symbol, "1h", 12)
			if err != nil || len(klines) == 0 {
				break
			}
			fmt.Fprintf(&sb, "%s hourly closes:", rows[0].Symbol)
			for _, k := range klines {
				sb.WriteString(" " + k.Close)
			}
			sb.WriteString("\n")
			break
		}
	}

	sumUSD, count := s.events.Totals()
	fmt.Fprintf(&sb, "Session liquidations: $%.0f across %d events.\n", sumUSD, count)
	return sb.String()
}

func trimErr(err error) string {
	msg := err.Error()
	if len(msg) > 120 {
		msg = msg[:120] + "..."
	}
	return msg
}
