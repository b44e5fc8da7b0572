package store

import (
	"context"
	"sort"
	"sync"

	"flytaxi/internal/dispatch-service/core/domain/model"
	"flytaxi/internal/dispatch-service/core/myerrors"
	"flytaxi/internal/dispatch-service/core/ports"
)

// DriverStore persists the roster to drivers.json with the same snapshot
// discipline as the order store.
type DriverStore struct {
	mu   sync.RWMutex
	byID map[string]model.Driver
	file *snapshotFile
}

var _ ports.IDriverStore = (*DriverStore)(nil)

func NewDriverStore(dir string) (*DriverStore, error) {
	file, err := newSnapshotFile(dir, "drivers.json")
	if err != nil {
		return nil, err
	}
	s := &DriverStore{
		byID: make(map[string]model.Driver),
		file: file,
	}
	if err := file.load(&s.byID); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DriverStore) Get(_ context.Context, driverID string) (model.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	driver, ok := s.byID[driverID]
	if !ok {
		return model.Driver{}, myerrors.ErrDriverNotFound
	}
	return driver, nil
}

func (s *DriverStore) Put(_ context.Context, driver model.Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[driver.ID] = driver
	return s.file.save(s.byID)
}

func (s *DriverStore) All(_ context.Context) ([]model.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Driver, 0, len(s.byID))
	for _, d := range s.byID {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
