package messagebrokerdto

import "flytaxi/internal/dispatch-service/core/domain/model"

const (
	ConfirmAccepted        = "accepted"
	ConfirmArrived         = "arrived"
	ConfirmFinished        = "finished"
	ConfirmDriverCancelled = "driver_cancelled"
)

// DriverCard is the driver summary shown to the passenger on acceptance.
type DriverCard struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Username string `json:"username,omitempty"`
	Car      Car    `json:"car"`
}

type Car struct {
	Model     string `json:"model,omitempty"`
	Brand     string `json:"brand,omitempty"`
	ModelName string `json:"model_name,omitempty"`
	Plate     string `json:"plate,omitempty"`
	Color     string `json:"color,omitempty"`
}

// Confirmation is published onto the confirmations queue on each outward
// lifecycle transition. Per-status fields stay empty when not applicable.
type Confirmation struct {
	Status      string       `json:"status"`
	OrderID     string       `json:"order_id"`
	DriverID    string       `json:"driver_id,omitempty"`
	Driver      *DriverCard  `json:"driver,omitempty"`
	FreeWaitMin int          `json:"free_wait_min,omitempty"`
	PassengerID string       `json:"passenger_id,omitempty"`
	Pickup      *model.Place `json:"pickup,omitempty"`
	Dropoff     *model.Place `json:"dropoff,omitempty"`
}

// NewDriverCard assembles the accept-time card. The combined model field
// keeps the passenger bot's "Brand Model (color)" rendering.
func NewDriverCard(d *model.Driver) *DriverCard {
	combined := d.Car.Brand
	if d.Car.Model != "" {
		if combined != "" {
			combined += " "
		}
		combined += d.Car.Model
	}
	if d.Car.Color != "" {
		combined += " (" + d.Car.Color + ")"
	}
	return &DriverCard{
		ID:       d.ID,
		Name:     d.DisplayName(),
		Phone:    d.Phone,
		Username: d.Username,
		Car: Car{
			Model:     combined,
			Brand:     d.Car.Brand,
			ModelName: d.Car.Model,
			Plate:     d.Car.Plate,
			Color:     d.Car.Color,
		},
	}
}
