package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type OrderStatus string

const (
	StatusNew        OrderStatus = "new"
	StatusSearching  OrderStatus = "searching"
	StatusOffered    OrderStatus = "offered"
	StatusAccepted   OrderStatus = "accepted"
	StatusArrived    OrderStatus = "arrived"
	StatusInProgress OrderStatus = "in_progress"
	StatusDone       OrderStatus = "done"
	StatusExpired    OrderStatus = "expired"
	StatusCanceled   OrderStatus = "canceled"
)

// Terminal reports whether no further lifecycle transition is expected.
// Canceled orders are re-dispatched immediately, so they never rest in
// the canceled state; it still counts as terminal for lock eviction.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusDone, StatusExpired, StatusCanceled:
		return true
	}
	return false
}

// Coords is a latitude/longitude pair carried on the wire as [lat, lon].
type Coords struct {
	Lat float64
	Lon float64
}

func (c Coords) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lon})
}

func (c *Coords) UnmarshalJSON(data []byte) error {
	var arr []float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) != 2 {
		return fmt.Errorf("coords: expected [lat, lon], got %d elements", len(arr))
	}
	c.Lat, c.Lon = arr[0], arr[1]
	return nil
}

func (c Coords) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

type Place struct {
	Address string  `json:"address,omitempty"`
	Coords  *Coords `json:"coords,omitempty"`
}

// PassengerRef is the passenger summary the passenger side attaches to an
// order so the driver side can route cancellation notices back.
type PassengerRef struct {
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

type Order struct {
	ID         string        `json:"id"`
	Pickup     Place         `json:"pickup"`
	Dropoff    Place         `json:"dropoff"`
	Tariff     string        `json:"tariff,omitempty"`
	Payment    string        `json:"payment,omitempty"`
	Price      float64       `json:"price"`
	DistanceKm float64       `json:"distance_km,omitempty"`
	EtaMin     int           `json:"eta_min,omitempty"`
	Passenger  *PassengerRef `json:"passenger,omitempty"`

	Status     OrderStatus `json:"status"`
	AcceptedBy string      `json:"accepted_by,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	OfferedAt  *time.Time `json:"offered_at,omitempty"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	ArrivedAt  *time.Time `json:"arrived_at,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CanceledAt *time.Time `json:"canceled_at,omitempty"`
}

// PassengerID resolves the passenger identifier, if the order carries one.
func (o *Order) PassengerID() string {
	if o.Passenger == nil {
		return ""
	}
	return o.Passenger.UserID
}
