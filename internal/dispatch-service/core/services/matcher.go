package services

import (
	"sort"

	"flytaxi/internal/dispatch-service/core/domain/model"
	"flytaxi/internal/mylogger"
)

// Matcher runs the eligibility filter pipeline for one order against a
// roster snapshot. Each filter is logged on its own so a driver silently
// missing offers can be diagnosed from the logs alone.
type Matcher struct {
	mylog           mylogger.Logger
	defaultPickupKm float64
}

func NewMatcher(mylog mylogger.Logger, defaultPickupKm float64) *Matcher {
	if defaultPickupKm <= 0 {
		defaultPickupKm = 5.0
	}
	return &Matcher{
		mylog:           mylog,
		defaultPickupKm: defaultPickupKm,
	}
}

// Match returns the ids of drivers eligible to receive the offer, sorted so
// identical input always yields identical output. Broadcast is simultaneous,
// the ordering carries no priority.
func (m *Matcher) Match(order model.Order, roster []model.Driver) []string {
	log := m.mylog.Action("match").With("order_id", order.ID)

	orderPayment := NormalizePayment(order.Payment)
	orderTariff := NormalizeTariff(order.Tariff)

	pickup := order.Pickup.Coords
	if pickup != nil && !pickup.Valid() {
		pickup = nil
	}

	eligible := make([]string, 0, len(roster))
	for _, d := range roster {
		if !d.Available() {
			log.Debug("driver skipped", "driver_id", d.ID, "filter", "approved_online")
			continue
		}

		if d.PaymentMethod != model.PaymentBoth && d.PaymentMethod != orderPayment {
			log.Debug("driver skipped", "driver_id", d.ID, "filter", "payment",
				"order_payment", orderPayment, "driver_payment", d.PaymentMethod)
			continue
		}

		// an order with no tariff matches any driver
		if orderTariff != "" && !hasClass(d.Classes, orderTariff) {
			log.Debug("driver skipped", "driver_id", d.ID, "filter", "class",
				"order_tariff", orderTariff, "driver_classes", d.Classes)
			continue
		}

		// unknown driver location or unresolved pickup: excluded, not guessed
		if d.LastLocation == nil || !d.LastLocation.Valid() {
			log.Debug("driver skipped", "driver_id", d.ID, "filter", "location", "reason", "no driver location")
			continue
		}
		if pickup == nil {
			log.Debug("driver skipped", "driver_id", d.ID, "filter", "location", "reason", "no pickup coords")
			continue
		}

		radius := d.PickupKm
		if radius <= 0 {
			radius = m.defaultPickupKm
		}
		dist := HaversineKm(*d.LastLocation, *pickup)
		if dist > radius {
			log.Debug("driver skipped", "driver_id", d.ID, "filter", "distance",
				"distance_km", dist, "pickup_km", radius)
			continue
		}

		eligible = append(eligible, d.ID)
	}

	sort.Strings(eligible)
	log.Info("eligibility computed", "eligible", len(eligible), "roster", len(roster))
	return eligible
}

func hasClass(classes []string, tariff string) bool {
	for _, c := range classes {
		if NormalizeTariff(c) == tariff {
			return true
		}
	}
	return false
}
