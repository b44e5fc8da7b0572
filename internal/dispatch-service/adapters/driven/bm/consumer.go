package bm

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConsumeOrders opens a delivery stream over the orders queue. Messages are
// acked manually so a crash mid-ingest requeues instead of losing the order.
func (r *RabbitMQ) ConsumeOrders(ctx context.Context, consumerName string) (<-chan amqp.Delivery, error) {
	if r.conn == nil || r.conn.IsClosed() {
		r.mylog.Action("ConsumeOrders").Error("connection to rabbitmq is closed", fmt.Errorf("closed conn"))
		go r.reconnect(r.ctx)
		return nil, errors.New("connection is closed")
	}
	return r.ch.ConsumeWithContext(ctx, r.cfg.OrdersQueue, consumerName, false, false, false, false, nil)
}
