package ports

import (
	"context"

	"flytaxi/internal/dispatch-service/core/domain/model"
)

// IOrderStore persists the order collection. Put must commit atomically:
// a crash mid-write never leaves a partially written collection visible.
type IOrderStore interface {
	Get(ctx context.Context, orderID string) (model.Order, error)
	Put(ctx context.Context, order model.Order) error
	All(ctx context.Context) ([]model.Order, error)
	ByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
}

// IDriverStore persists the driver roster with the same atomicity rule.
type IDriverStore interface {
	Get(ctx context.Context, driverID string) (model.Driver, error)
	Put(ctx context.Context, driver model.Driver) error
	All(ctx context.Context) ([]model.Driver, error)
}
