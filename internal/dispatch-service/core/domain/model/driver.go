package model

import "time"

const (
	PaymentCash = "cash"
	PaymentCard = "card"
	PaymentBoth = "both"
)

type Car struct {
	Brand string `json:"brand,omitempty"`
	Model string `json:"model,omitempty"`
	Color string `json:"color,omitempty"`
	Plate string `json:"plate,omitempty"`
}

// DayStats is reset externally at the start of each working day.
type DayStats struct {
	Trips    int     `json:"trips"`
	Earn     float64 `json:"earn"`
	Accepted int     `json:"accepted"`
	Declined int     `json:"declined"`
	Canceled int     `json:"canceled"`
}

type Driver struct {
	ID       string `json:"id"`
	Callsign string `json:"callsign,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Username string `json:"username,omitempty"`
	Car      Car    `json:"car"`

	Approved   bool       `json:"approved"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	Online     bool       `json:"online"`

	LastLocation *Coords `json:"last_location,omitempty"`

	PickupKm      float64  `json:"pickup_km"`
	PaymentMethod string   `json:"payment_method"`
	Classes       []string `json:"classes"`

	ActiveOrderID string   `json:"active_order_id,omitempty"`
	Today         DayStats `json:"today"`

	// bcrypt hash of the access code presented at token issuance
	SecretHash string `json:"secret_hash,omitempty"`
}

// DisplayName mirrors the card shown to passengers: callsign, then phone,
// then a bare id reference.
func (d *Driver) DisplayName() string {
	if d.Callsign != "" {
		return d.Callsign
	}
	if d.Phone != "" {
		return d.Phone
	}
	return "ID " + d.ID
}

// Eligible to receive offers at all: roster-level gate, before any
// per-order filtering.
func (d *Driver) Available() bool {
	return d.Approved && d.Online
}
