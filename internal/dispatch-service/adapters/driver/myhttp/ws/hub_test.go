package ws

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	websocketdto "flytaxi/internal/dispatch-service/core/domain/websocket_dto"
	"flytaxi/internal/mylogger"
)

func testLogger() mylogger.Logger {
	return mylogger.NewWithWriter(io.Discard, slog.LevelError, "test")
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func dialDriver(t *testing.T, srv *httptest.Server, driverID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"X-DriverId": {driverID}})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestHubTracksConnections(t *testing.T) {
	hub := NewHub(testLogger())
	srv := httptest.NewServer(hub.StreamHandler())
	defer srv.Close()

	if got := hub.Connected(); got != 0 {
		t.Fatalf("Connected = %d before any dial, want 0", got)
	}

	conn := dialDriver(t, srv, "d1")
	waitFor(t, time.Second, func() bool { return hub.Connected() == 1 })

	event, err := websocketdto.NewEvent(websocketdto.TypeOrderOffer,
		websocketdto.OrderOffer{OrderID: "o1", Price: 100})
	if err != nil {
		t.Fatal(err)
	}
	if err := hub.WriteToDriver(context.Background(), "d1", event); err != nil {
		t.Fatalf("WriteToDriver: %v", err)
	}
	var got websocketdto.Event
	conn.SetReadDeadline(time.Now().Add(time.Second))
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Type != websocketdto.TypeOrderOffer {
		t.Errorf("event type = %q, want %q", got.Type, websocketdto.TypeOrderOffer)
	}

	conn.Close()
	waitFor(t, time.Second, func() bool { return hub.Connected() == 0 })
}

func TestHubReconnectReplacesConnection(t *testing.T) {
	hub := NewHub(testLogger())
	srv := httptest.NewServer(hub.StreamHandler())
	defer srv.Close()

	first := dialDriver(t, srv, "d1")
	waitFor(t, time.Second, func() bool { return hub.Connected() == 1 })

	second := dialDriver(t, srv, "d1")
	defer second.Close()

	// the first socket is closed server-side, the count stays at one
	first.SetReadDeadline(time.Now().Add(time.Second))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			break
		}
	}
	waitFor(t, time.Second, func() bool { return hub.Connected() == 1 })

	event, err := websocketdto.NewEvent(websocketdto.TypeOrderOffer,
		websocketdto.OrderOffer{OrderID: "o1", Price: 100})
	if err != nil {
		t.Fatal(err)
	}
	if err := hub.WriteToDriver(context.Background(), "d1", event); err != nil {
		t.Fatalf("WriteToDriver after reconnect: %v", err)
	}
	var got websocketdto.Event
	second.SetReadDeadline(time.Now().Add(time.Second))
	if err := second.ReadJSON(&got); err != nil {
		t.Fatalf("replacement connection got no event: %v", err)
	}

	if err := hub.WriteToDriver(context.Background(), "d2", event); err == nil {
		t.Error("write to a driver with no connection succeeded")
	}
}
