package ports

import (
	"context"

	"flytaxi/internal/dispatch-service/core/domain/model"
)

// ILocationIndex is an optional geo index over driver positions. The roster
// snapshot remains authoritative; the index only narrows the candidate set
// before the matcher runs its full filter pipeline.
type ILocationIndex interface {
	Update(ctx context.Context, driverID string, c model.Coords) error
	Nearby(ctx context.Context, c model.Coords, radiusKm float64) ([]string, error)
}
