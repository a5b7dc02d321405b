package binance

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"marketdash/internal/application/port"
	"marketdash/internal/domain"
)

// LiquidationFeed streams the all-market force-order channel from Binance
// futures. Connection failures are delivered as error events on the same
// channel so the live feed can render them inline, then the loop reconnects
// with exponential backoff.
type LiquidationFeed struct {
	wsURL string // e.g. wss://fstream.binance.com
}

func NewLiquidationFeed(wsURL string) *LiquidationFeed {
	if wsURL == "" {
		wsURL = "wss://fstream.binance.com"
	}
	return &LiquidationFeed{wsURL: strings.TrimSpace(wsURL)}
}

func (f *LiquidationFeed) Name() string { return Name }

type forceOrderMsg struct {
	Stream string `json:"stream"`
	Data   struct {
		Event string `json:"e"`
		Order struct {
			Symbol string `json:"s"`
			Side   string `json:"S"`
			Price  string `json:"p"`
			Qty    string `json:"q"`
			Time   int64  `json:"T"`
		} `json:"o"`
	} `json:"data"`
}

func (f *LiquidationFeed) Subscribe(ctx context.Context) (<-chan port.StreamEvent, error) {
	wsURL := strings.TrimRight(f.wsURL, "/") + "/stream?streams=!forceOrder@arr"
	out := make(chan port.StreamEvent, 1024)
	go f.run(ctx, wsURL, out)
	return out, nil
}

func (f *LiquidationFeed) run(ctx context.Context, wsURL string, out chan<- port.StreamEvent) {
	defer close(out)

	backoff := 500 * time.Millisecond
	maxBackoff := 10 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		conn, _, err := websocket.DefaultDialer.DialContext(cctx, wsURL, nil)
		cancel()
		if err != nil {
			log.Error().Str("feed", f.Name()).Err(err).Msg("liquidation ws dial failed")
			out <- port.StreamEvent{Err: "stream connect failed: " + err.Error()}
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = minDur(backoff*2, maxBackoff)
			continue
		}

		backoff = 500 * time.Millisecond
		log.Info().Str("feed", f.Name()).Msg("liquidation ws connected")

		err = readLoop(ctx, conn, func(b []byte) {
			var msg forceOrderMsg
			if e := json.Unmarshal(b, &msg); e != nil {
				return
			}
			o := msg.Data.Order
			if o.Symbol == "" || o.Price == "" || o.Qty == "" {
				return
			}
			side := domain.SideSell
			if strings.EqualFold(o.Side, "BUY") {
				side = domain.SideBuy
			}
			ts := o.Time
			if ts == 0 {
				ts = time.Now().UnixMilli()
			}
			select {
			case out <- port.StreamEvent{Liquidation: &domain.Liquidation{
				Symbol:   strings.ToUpper(o.Symbol),
				Side:     side,
				Price:    o.Price,
				Qty:      o.Qty,
				USDValue: domain.NotionalUSD(o.Price, o.Qty),
				Ts:       ts,
				Exchange: f.Name(),
			}}:
			case <-ctx.Done():
			}
		})

		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}

		log.Warn().Str("feed", f.Name()).Err(err).Msg("liquidation ws disconnected, reconnecting")
		out <- port.StreamEvent{Err: "stream disconnected, reconnecting"}
		if !sleepCtx(ctx, backoff) {
			return
		}
		backoff = minDur(backoff*2, maxBackoff)
	}
}

func readLoop(ctx context.Context, conn *websocket.Conn, onMsg func([]byte)) error {
	const readWait = 60 * time.Second

	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		return nil
	})

	pingTicker := time.NewTicker(25 * time.Second)
	defer pingTicker.Stop()

	done := make(chan error, 1)
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			onMsg(msg)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			// unblock ReadMessage and wait for the reader goroutine so no
			// callback can fire after the caller closes its channel
			_ = conn.Close()
			<-done
			return ctx.Err()
		case err := <-done:
			return err
		case <-pingTicker.C:
			_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
