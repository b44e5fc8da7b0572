package services

import (
	"context"
	"io"
	"log/slog"
	"sync"

	messagebrokerdto "flytaxi/internal/dispatch-service/core/domain/message_broker_dto"
	"flytaxi/internal/dispatch-service/core/domain/model"
	websocketdto "flytaxi/internal/dispatch-service/core/domain/websocket_dto"
	"flytaxi/internal/dispatch-service/core/myerrors"
	"flytaxi/internal/mylogger"
)

func testLogger() mylogger.Logger {
	return mylogger.NewWithWriter(io.Discard, slog.LevelError, "test")
}

type memOrderStore struct {
	mu     sync.Mutex
	orders map[string]model.Order
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{orders: make(map[string]model.Order)}
}

func (s *memOrderStore) Get(_ context.Context, orderID string) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return model.Order{}, myerrors.ErrOrderNotFound
	}
	return o, nil
}

func (s *memOrderStore) Put(_ context.Context, order model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
	return nil
}

func (s *memOrderStore) All(_ context.Context) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	return out, nil
}

func (s *memOrderStore) ByStatus(_ context.Context, status model.OrderStatus) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Order
	for _, o := range s.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

type memDriverStore struct {
	mu      sync.Mutex
	drivers map[string]model.Driver
}

func newMemDriverStore() *memDriverStore {
	return &memDriverStore{drivers: make(map[string]model.Driver)}
}

func (s *memDriverStore) Get(_ context.Context, driverID string) (model.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[driverID]
	if !ok {
		return model.Driver{}, myerrors.ErrDriverNotFound
	}
	return d, nil
}

func (s *memDriverStore) Put(_ context.Context, driver model.Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers[driver.ID] = driver
	return nil
}

func (s *memDriverStore) All(_ context.Context) ([]model.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Driver, 0, len(s.drivers))
	for _, d := range s.drivers {
		out = append(out, d)
	}
	return out, nil
}

type capturePublisher struct {
	mu            sync.Mutex
	confirmations []messagebrokerdto.Confirmation
}

func (p *capturePublisher) PublishConfirmation(_ context.Context, c messagebrokerdto.Confirmation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmations = append(p.confirmations, c)
	return nil
}

func (p *capturePublisher) byStatus(status string) []messagebrokerdto.Confirmation {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []messagebrokerdto.Confirmation
	for _, c := range p.confirmations {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out
}

type sentEvent struct {
	DriverID string
	Event    websocketdto.Event
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []sentEvent
}

func (n *captureNotifier) WriteToDriver(_ context.Context, driverID string, event websocketdto.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEvent{DriverID: driverID, Event: event})
	return nil
}

func (n *captureNotifier) byType(eventType string) []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentEvent
	for _, e := range n.sent {
		if e.Event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// newTestDispatch wires a dispatch service over in-memory fakes with a short
// offer timeout so expiry paths stay testable.
func newTestDispatch(opts DispatchOptions) (*DispatchService, *memOrderStore, *memDriverStore, *capturePublisher, *captureNotifier) {
	orders := newMemOrderStore()
	drivers := newMemDriverStore()
	pub := &capturePublisher{}
	notify := &captureNotifier{}
	matcher := NewMatcher(testLogger(), 5.0)
	svc := NewDispatchService(testLogger(), orders, drivers, pub, notify, nil, matcher, opts)
	return svc, orders, drivers, pub, notify
}

func onlineDriver(id string, lat, lon float64) model.Driver {
	return model.Driver{
		ID:            id,
		Approved:      true,
		Online:        true,
		LastLocation:  &model.Coords{Lat: lat, Lon: lon},
		PickupKm:      3.0,
		PaymentMethod: model.PaymentBoth,
		Classes:       []string{"standard"},
	}
}

func searchingOrder(id string, lat, lon float64) model.Order {
	return model.Order{
		ID:      id,
		Pickup:  model.Place{Address: "Khreshchatyk 1", Coords: &model.Coords{Lat: lat, Lon: lon}},
		Dropoff: model.Place{Address: "Peremohy 37", Coords: &model.Coords{Lat: lat + 0.05, Lon: lon + 0.05}},
		Tariff:  "standard",
		Payment: "cash",
		Price:   100,
		Status:  model.StatusSearching,
	}
}
