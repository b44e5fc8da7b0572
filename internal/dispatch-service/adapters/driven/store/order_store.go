package store

import (
	"context"
	"sort"
	"sync"

	"flytaxi/internal/dispatch-service/core/domain/model"
	"flytaxi/internal/dispatch-service/core/myerrors"
	"flytaxi/internal/dispatch-service/core/ports"
)

// OrderStore keeps the full order collection in memory and flushes the
// whole map to orders.json on every Put.
type OrderStore struct {
	mu   sync.RWMutex
	byID map[string]model.Order
	file *snapshotFile
}

var _ ports.IOrderStore = (*OrderStore)(nil)

func NewOrderStore(dir string) (*OrderStore, error) {
	file, err := newSnapshotFile(dir, "orders.json")
	if err != nil {
		return nil, err
	}
	s := &OrderStore{
		byID: make(map[string]model.Order),
		file: file,
	}
	if err := file.load(&s.byID); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *OrderStore) Get(_ context.Context, orderID string) (model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.byID[orderID]
	if !ok {
		return model.Order{}, myerrors.ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderStore) Put(_ context.Context, order model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[order.ID] = order
	return s.file.save(s.byID)
}

func (s *OrderStore) All(_ context.Context) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Order, 0, len(s.byID))
	for _, o := range s.byID {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *OrderStore) ByStatus(_ context.Context, status model.OrderStatus) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Order
	for _, o := range s.byID {
		if o.Status == status {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
