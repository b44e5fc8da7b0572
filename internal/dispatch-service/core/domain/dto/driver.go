package dto

import "flytaxi/internal/dispatch-service/core/domain/model"

type RegisterDriverRequestDto struct {
	ID         *string `json:"id"`
	Name       *string `json:"name"`
	Phone      *string `json:"phone"`
	Username   *string `json:"username"`
	CarBrand   *string `json:"car_brand"`
	CarModel   *string `json:"car_model"`
	CarColor   *string `json:"car_color"`
	CarPlate   *string `json:"car_plate"`
	AccessCode *string `json:"access_code"`
}

type RegisterDriverResponseDto struct {
	DriverID string `json:"driver_id"`
	Approved bool   `json:"approved"`
	Message  string `json:"message"`
}

type ApproveDriverRequestDto struct {
	Classes []string `json:"classes"`
}

type LoginRequestDto struct {
	DriverID   *string `json:"driver_id"`
	AccessCode *string `json:"access_code"`
}

type LoginResponseDto struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

type LocationUpdateRequestDto struct {
	Coords *model.Coords `json:"coords"`
}

type SettingsRequestDto struct {
	PickupKm      *float64 `json:"pickup_km"`
	PaymentMethod *string  `json:"payment_method"`
}

type DriverStatusResponseDto struct {
	DriverID      string         `json:"driver_id"`
	Approved      bool           `json:"approved"`
	Online        bool           `json:"online"`
	PickupKm      float64        `json:"pickup_km"`
	PaymentMethod string         `json:"payment_method"`
	Classes       []string       `json:"classes"`
	ActiveOrderID string         `json:"active_order_id,omitempty"`
	LastLocation  *model.Coords  `json:"last_location,omitempty"`
	Today         model.DayStats `json:"today"`
}

type ActionResponseDto struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type OverviewResponseDto struct {
	OrdersByStatus map[string]int `json:"orders_by_status"`
	DriversOnline  int            `json:"drivers_online"`
	DriversTotal   int            `json:"drivers_total"`
}
