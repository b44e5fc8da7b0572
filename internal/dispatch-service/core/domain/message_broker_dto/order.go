package messagebrokerdto

import (
	"time"

	"flytaxi/internal/dispatch-service/core/domain/model"
)

// OrderMessage is the payload published by the passenger side onto the
// orders queue. The passenger side publishes both a flat shape and a legacy
// nested "route" shape; pickup coordinates are taken from whichever is set.
type OrderMessage struct {
	ID         string              `json:"id,omitempty"`
	Pickup     model.Place         `json:"pickup"`
	Dropoff    model.Place         `json:"dropoff"`
	Route      *Route              `json:"route,omitempty"`
	Tariff     string              `json:"tariff,omitempty"`
	Payment    string              `json:"payment,omitempty"`
	Price      float64             `json:"price"`
	DistanceKm float64             `json:"distance_km,omitempty"`
	EtaMin     int                 `json:"eta_min,omitempty"`
	Passenger  *model.PassengerRef `json:"passenger,omitempty"`
}

type Route struct {
	Start model.Place `json:"start"`
	Final model.Place `json:"final"`
}

// PickupCoords resolves pickup coordinates from the flat shape first, then
// the nested route shape. Returns nil when neither carries a valid pair.
func (m *OrderMessage) PickupCoords() *model.Coords {
	if m.Pickup.Coords != nil && m.Pickup.Coords.Valid() {
		return m.Pickup.Coords
	}
	if m.Route != nil && m.Route.Start.Coords != nil && m.Route.Start.Coords.Valid() {
		return m.Route.Start.Coords
	}
	return nil
}

// ToOrder builds a fresh order in its pre-dispatch state.
func (m *OrderMessage) ToOrder(now time.Time) model.Order {
	pickup := m.Pickup
	if pickup.Coords == nil {
		pickup.Coords = m.PickupCoords()
	}
	dropoff := m.Dropoff
	if dropoff.Coords == nil && m.Route != nil {
		dropoff = m.Route.Final
	}
	return model.Order{
		ID:         m.ID,
		Pickup:     pickup,
		Dropoff:    dropoff,
		Tariff:     m.Tariff,
		Payment:    m.Payment,
		Price:      m.Price,
		DistanceKm: m.DistanceKm,
		EtaMin:     m.EtaMin,
		Passenger:  m.Passenger,
		Status:     model.StatusSearching,
		CreatedAt:  now,
	}
}
