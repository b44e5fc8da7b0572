package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rabbitmq/amqp091-go"

	messagebrokerdto "flytaxi/internal/dispatch-service/core/domain/message_broker_dto"
	"flytaxi/internal/dispatch-service/core/myerrors"
	"flytaxi/internal/dispatch-service/core/ports"
	"flytaxi/internal/mylogger"
)

const consumerName = "dispatch-service"

// IOrderSource is the slice of the broker adapter the ingest loop needs.
type IOrderSource interface {
	ConsumeOrders(ctx context.Context, consumerName string) (<-chan amqp091.Delivery, error)
}

// OrderConsumer drains the orders queue into the dispatch service.
type OrderConsumer struct {
	ctx      context.Context
	mylog    mylogger.Logger
	source   IOrderSource
	dispatch ports.IDispatchService
}

func New(ctx context.Context, mylog mylogger.Logger, source IOrderSource, dispatch ports.IDispatchService) *OrderConsumer {
	return &OrderConsumer{
		ctx:      ctx,
		mylog:    mylog,
		source:   source,
		dispatch: dispatch,
	}
}

func (c *OrderConsumer) Run() error {
	deliveries, err := c.source.ConsumeOrders(c.ctx, consumerName)
	if err != nil {
		return err
	}
	go c.work(c.ctx, deliveries)
	return nil
}

func (c *OrderConsumer) work(ctx context.Context, ch <-chan amqp091.Delivery) {
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			c.handle(ctx, msg)
		case <-ctx.Done():
			return
		}
	}
}

// handle acks every delivery it fully processed and rejects malformed ones
// without requeue so a poisoned message cannot loop forever.
func (c *OrderConsumer) handle(ctx context.Context, msg amqp091.Delivery) {
	mylog := c.mylog.Action("handleOrderMessage")

	var m messagebrokerdto.OrderMessage
	if err := json.Unmarshal(msg.Body, &m); err != nil {
		mylog.Error("malformed order message", err)
		_ = msg.Reject(false)
		return
	}

	order, err := c.dispatch.IngestOrder(ctx, m)
	switch {
	case errors.Is(err, myerrors.ErrInvalidOrder):
		mylog.Warn("order message rejected", "order_id", m.ID, "reason", err.Error())
		_ = msg.Reject(false)
		return
	case err != nil:
		mylog.Error("order ingest failed, requeueing", err, "order_id", m.ID)
		_ = msg.Nack(false, true)
		return
	}

	mylog.Info("order ingested", "order_id", order.ID, "status", order.Status)
	_ = msg.Ack(false)
}
