package ports

import (
	"context"

	messagebrokerdto "flytaxi/internal/dispatch-service/core/domain/message_broker_dto"
)

// IConfirmationPublisher pushes lifecycle confirmations to the passenger
// side. Delivery is at-least-once and fire-and-forget: callers log failures
// and keep going, they never roll state back.
type IConfirmationPublisher interface {
	PublishConfirmation(ctx context.Context, c messagebrokerdto.Confirmation) error
}
