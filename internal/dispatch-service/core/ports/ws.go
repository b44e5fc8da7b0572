package ports

import (
	"context"

	websocketdto "flytaxi/internal/dispatch-service/core/domain/websocket_dto"
)

// INotifyWebsocket delivers events to a connected driver. A driver without a
// live connection is an unreachable recipient: the implementation returns an
// error and the caller moves on to the next driver.
type INotifyWebsocket interface {
	WriteToDriver(ctx context.Context, driverID string, event websocketdto.Event) error
}
