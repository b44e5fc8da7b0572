package bm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	messagebrokerdto "flytaxi/internal/dispatch-service/core/domain/message_broker_dto"
	"flytaxi/internal/dispatch-service/core/ports"
)

var _ ports.IConfirmationPublisher = (*RabbitMQ)(nil)

// PublishConfirmation pushes a lifecycle confirmation onto the
// confirmations queue through the default exchange.
func (r *RabbitMQ) PublishConfirmation(ctx context.Context, c messagebrokerdto.Confirmation) error {
	mylog := r.mylog.Action("PublishConfirmation")

	if r.conn.IsClosed() {
		mylog.Error("connection to rabbitmq is closed", fmt.Errorf("closed conn"))
		go r.reconnect(r.ctx)
		return errors.New("connection is closed")
	}

	body, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return r.ch.PublishWithContext(ctx, "", r.cfg.ConfirmationsQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}
