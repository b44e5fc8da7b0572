package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	websocketdto "flytaxi/internal/dispatch-service/core/domain/websocket_dto"
)

const (
	readLimit  = 1024
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
	writeWait  = 10 * time.Second
)

// Client is one driver connection. Events flow through the egress channel
// so the hub never writes to the socket from two goroutines.
type Client struct {
	ctx      context.Context
	conn     *websocket.Conn
	hub      *Hub
	egress   chan websocketdto.Event
	driverID string
}

func NewClient(ctx context.Context, conn *websocket.Conn, hub *Hub, driverID string) *Client {
	return &Client{
		ctx:      ctx,
		conn:     conn,
		hub:      hub,
		egress:   make(chan websocketdto.Event, 8),
		driverID: driverID,
	}
}

// ReadMessage drains the socket for control frames and detects the peer
// going away. Drivers act through the HTTP API, not the socket, so inbound
// payloads are discarded.
func (c *Client) ReadMessage() {
	defer c.hub.RemoveClient(c)

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WriteMessage() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case event, ok := <-c.egress:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
