package services

import (
	"reflect"
	"testing"

	"flytaxi/internal/dispatch-service/core/domain/model"
)

// pickup at the Kyiv center, drivers offset north by whole kilometers
// (one degree of latitude is ~111.19 km).
var matchPickup = model.Coords{Lat: 50.4501, Lon: 30.5234}

func driverAtKm(id string, km float64) model.Driver {
	d := onlineDriver(id, matchPickup.Lat+km/111.19, matchPickup.Lon)
	return d
}

func TestMatchDistanceFilter(t *testing.T) {
	m := NewMatcher(testLogger(), 5.0)
	order := searchingOrder("o1", matchPickup.Lat, matchPickup.Lon)

	near := driverAtKm("d-near", 2.0) // pickup_km 3.0
	far := driverAtKm("d-far", 5.0)   // pickup_km 3.0

	got := m.Match(order, []model.Driver{far, near})
	want := []string{"d-near"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Match = %v, want %v", got, want)
	}
}

func TestMatchDefaultRadiusWhenUnset(t *testing.T) {
	m := NewMatcher(testLogger(), 5.0)
	order := searchingOrder("o1", matchPickup.Lat, matchPickup.Lon)

	d := driverAtKm("d1", 4.0)
	d.PickupKm = 0 // falls back to the 5 km default

	if got := m.Match(order, []model.Driver{d}); len(got) != 1 {
		t.Errorf("driver at 4 km with default radius excluded: %v", got)
	}
}

func TestMatchPresenceFilter(t *testing.T) {
	m := NewMatcher(testLogger(), 5.0)
	order := searchingOrder("o1", matchPickup.Lat, matchPickup.Lon)

	offline := driverAtKm("d-offline", 1.0)
	offline.Online = false
	unapproved := driverAtKm("d-unapproved", 1.0)
	unapproved.Approved = false
	ok := driverAtKm("d-ok", 1.0)

	got := m.Match(order, []model.Driver{offline, unapproved, ok})
	if !reflect.DeepEqual(got, []string{"d-ok"}) {
		t.Errorf("Match = %v, want [d-ok]", got)
	}
}

func TestMatchPaymentFilter(t *testing.T) {
	m := NewMatcher(testLogger(), 5.0)
	order := searchingOrder("o1", matchPickup.Lat, matchPickup.Lon)
	order.Payment = "💵 готівка" // normalizes to cash

	cashOnly := driverAtKm("d-cash", 1.0)
	cashOnly.PaymentMethod = model.PaymentCash
	cardOnly := driverAtKm("d-card", 1.0)
	cardOnly.PaymentMethod = model.PaymentCard
	both := driverAtKm("d-both", 1.0)

	got := m.Match(order, []model.Driver{cardOnly, both, cashOnly})
	want := []string{"d-both", "d-cash"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Match = %v, want %v", got, want)
	}
}

func TestMatchClassFilter(t *testing.T) {
	m := NewMatcher(testLogger(), 5.0)
	order := searchingOrder("o1", matchPickup.Lat, matchPickup.Lon)
	order.Tariff = "комфорт"

	standard := driverAtKm("d-standard", 1.0)
	comfort := driverAtKm("d-comfort", 1.0)
	comfort.Classes = []string{"standard", "comfort"}

	got := m.Match(order, []model.Driver{standard, comfort})
	if !reflect.DeepEqual(got, []string{"d-comfort"}) {
		t.Errorf("Match = %v, want [d-comfort]", got)
	}
}

func TestMatchEmptyTariffMatchesAnyClass(t *testing.T) {
	m := NewMatcher(testLogger(), 5.0)
	order := searchingOrder("o1", matchPickup.Lat, matchPickup.Lon)
	order.Tariff = ""

	d := driverAtKm("d1", 1.0)
	d.Classes = []string{"business"}

	if got := m.Match(order, []model.Driver{d}); len(got) != 1 {
		t.Errorf("tariff-less order should match any class, got %v", got)
	}
}

func TestMatchMissingLocationsFailClosed(t *testing.T) {
	m := NewMatcher(testLogger(), 5.0)

	noLocation := driverAtKm("d-no-loc", 1.0)
	noLocation.LastLocation = nil

	order := searchingOrder("o1", matchPickup.Lat, matchPickup.Lon)
	if got := m.Match(order, []model.Driver{noLocation}); len(got) != 0 {
		t.Errorf("driver without location matched: %v", got)
	}

	// order whose pickup coordinates never resolved
	order.Pickup.Coords = nil
	located := driverAtKm("d1", 1.0)
	if got := m.Match(order, []model.Driver{located}); len(got) != 0 {
		t.Errorf("order without pickup coords matched: %v", got)
	}
}

func TestMatchOutputSorted(t *testing.T) {
	m := NewMatcher(testLogger(), 5.0)
	order := searchingOrder("o1", matchPickup.Lat, matchPickup.Lon)

	roster := []model.Driver{
		driverAtKm("charlie", 1.0),
		driverAtKm("alpha", 1.0),
		driverAtKm("bravo", 1.0),
	}
	got := m.Match(order, roster)
	want := []string{"alpha", "bravo", "charlie"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Match = %v, want %v", got, want)
	}
}
