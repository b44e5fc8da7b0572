package ports

import (
	"context"

	"flytaxi/internal/dispatch-service/core/domain/dto"
	messagebrokerdto "flytaxi/internal/dispatch-service/core/domain/message_broker_dto"
	"flytaxi/internal/dispatch-service/core/domain/model"
)

// IDispatchService is the order side of the core: ingestion, offer
// broadcast, acceptance arbitration and the trip lifecycle.
type IDispatchService interface {
	// IngestOrder is idempotent on order id: an existing order is updated
	// in place, never duplicated. Assigns an id when the message has none.
	IngestOrder(ctx context.Context, msg messagebrokerdto.OrderMessage) (model.Order, error)

	// Dispatch re-reads the roster, matches eligible drivers, broadcasts
	// the offer and arms the expiry timer. With no eligible drivers the
	// order keeps its pre-dispatch status.
	Dispatch(ctx context.Context, orderID string) error

	Accept(ctx context.Context, orderID, driverID string) (model.AcceptOutcome, error)
	Decline(ctx context.Context, orderID, driverID string) error
	Arrived(ctx context.Context, orderID, driverID string) error
	StartTrip(ctx context.Context, orderID, driverID string) error
	Finish(ctx context.Context, orderID, driverID string) error
	Cancel(ctx context.Context, orderID, driverID string) error

	// Resume re-arms expiry timers for orders left offered across a restart.
	Resume(ctx context.Context) error
}

// IRosterService is the driver side: registration, presence and settings.
type IRosterService interface {
	Register(ctx context.Context, req dto.RegisterDriverRequestDto) (dto.RegisterDriverResponseDto, error)
	Approve(ctx context.Context, driverID string, classes []string) error
	Login(ctx context.Context, req dto.LoginRequestDto) (dto.LoginResponseDto, error)
	GoOnline(ctx context.Context, driverID string) error
	GoOffline(ctx context.Context, driverID string) error
	UpdateLocation(ctx context.Context, driverID string, c model.Coords) error
	UpdateSettings(ctx context.Context, driverID string, req dto.SettingsRequestDto) error
	Status(ctx context.Context, driverID string) (dto.DriverStatusResponseDto, error)
	Overview(ctx context.Context) (dto.OverviewResponseDto, error)
}
