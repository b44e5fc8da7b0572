package ws

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	websocketdto "flytaxi/internal/dispatch-service/core/domain/websocket_dto"
	"flytaxi/internal/dispatch-service/core/ports"
	"flytaxi/internal/mylogger"
)

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub tracks the live driver connections, one per driver id. A driver
// reconnecting replaces the previous connection.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     mylogger.Logger
}

var _ ports.INotifyWebsocket = (*Hub)(nil)

func NewHub(log mylogger.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		log:     log,
	}
}

// StreamHandler upgrades an authenticated driver request into the offer
// stream. The auth middleware has already resolved X-DriverId.
func (h *Hub) StreamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := h.log.Action("StreamHandler")

		driverID := r.Header.Get("X-DriverId")
		if driverID == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		conn, err := websocketUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("cannot upgrade", err)
			return
		}

		client := NewClient(context.Background(), conn, h, driverID)
		h.AddClient(client)
		log.Info("driver stream opened", "driver_id", driverID)

		go client.ReadMessage()
		go client.WriteMessage()
	}
}

func (h *Hub) AddClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.clients[client.driverID]; ok {
		existing.conn.Close()
	}
	h.clients[client.driverID] = client
}

func (h *Hub) RemoveClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[client.driverID]; ok && current == client {
		delete(h.clients, client.driverID)
	}
	client.conn.Close()
}

// WriteToDriver queues an event for one driver. A driver without a live
// connection, or one whose egress stays full past the context deadline, is
// reported as unreachable.
func (h *Hub) WriteToDriver(ctx context.Context, driverID string, event websocketdto.Event) error {
	h.mu.RLock()
	client, ok := h.clients[driverID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("driver %s has no live connection", driverID)
	}

	select {
	case client.egress <- event:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("driver %s send timed out: %w", driverID, ctx.Err())
	}
}

func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
