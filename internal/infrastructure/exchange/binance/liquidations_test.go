package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestSubscribeDeliversLiquidation(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stream" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		msg := `{"stream":"!forceOrder@arr","data":{"e":"forceOrder","o":{
			"s":"btcusdt","S":"SELL","p":"45000","q":"0.5","T":1700000000000}}}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			return
		}
		// hold the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	feed := NewLiquidationFeed(wsURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := feed.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Err != "" {
			t.Fatalf("unexpected error event: %s", ev.Err)
		}
		l := ev.Liquidation
		if l == nil {
			t.Fatal("expected a liquidation event")
		}
		if l.Symbol != "BTCUSDT" || l.Side != "SELL" {
			t.Errorf("event: %+v", l)
		}
		if l.USDValue != 22500 {
			t.Errorf("notional: %v", l.USDValue)
		}
		if l.Ts != 1700000000000 {
			t.Errorf("timestamp: %d", l.Ts)
		}
		if l.Exchange != Name {
			t.Errorf("exchange: %s", l.Exchange)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no event delivered")
	}
}

func TestSubscribeChannelClosesOnCancel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// stream events continuously so cancellation lands mid-delivery
		msg := []byte(`{"stream":"!forceOrder@arr","data":{"e":"forceOrder","o":{
			"s":"ethusdt","S":"BUY","p":"3000","q":"1","T":1700000000000}}}`)
		for {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	feed := NewLiquidationFeed(wsURL)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := feed.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	select {
	case <-events:
	case <-time.After(3 * time.Second):
		t.Fatal("no event before cancel")
	}
	cancel()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return // closed cleanly, no panic
			}
		case <-deadline:
			t.Fatal("event channel not closed after cancel")
		}
	}
}

func TestSubscribeEmitsErrorWhenUnreachable(t *testing.T) {
	feed := NewLiquidationFeed("ws://127.0.0.1:1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := feed.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Err == "" {
			t.Fatalf("expected an error event, got %+v", ev)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no error event delivered")
	}
}
