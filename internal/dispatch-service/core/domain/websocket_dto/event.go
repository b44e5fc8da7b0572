package websocketdto

import "encoding/json"

const (
	TypeOrderOffer     = "order_offer"
	TypeOfferWithdrawn = "offer_withdrawn"
)

// Event is the envelope pushed over the driver websocket stream.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// OrderOffer is the offer card a connected driver receives.
type OrderOffer struct {
	OrderID        string  `json:"order_id"`
	PickupAddress  string  `json:"pickup_address,omitempty"`
	DropoffAddress string  `json:"dropoff_address,omitempty"`
	DistanceKm     float64 `json:"distance_km,omitempty"`
	Tariff         string  `json:"tariff,omitempty"`
	Payment        string  `json:"payment,omitempty"`
	Price          float64 `json:"price"`
	EtaMin         int     `json:"eta_min,omitempty"`
	TimeoutSec     int     `json:"timeout_sec"`
}

// OfferWithdrawn tells drivers still holding an offer card that the order
// resolved (accepted elsewhere or expired).
type OfferWithdrawn struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

func NewEvent(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Data: data}, nil
}
