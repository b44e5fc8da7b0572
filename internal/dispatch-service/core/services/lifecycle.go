package services

import (
	"context"
	"errors"
	"fmt"

	messagebrokerdto "flytaxi/internal/dispatch-service/core/domain/message_broker_dto"
	"flytaxi/internal/dispatch-service/core/domain/model"
	"flytaxi/internal/dispatch-service/core/myerrors"
	"flytaxi/internal/observability"
)

// Accept arbitrates one accept attempt. The whole read-modify-persist
// sequence runs under the order lock, which is the sole guarantee that at
// most one driver ever wins.
func (s *DispatchService) Accept(ctx context.Context, orderID, driverID string) (model.AcceptOutcome, error) {
	log := s.mylog.Action("Accept").With("order_id", orderID, "driver_id", driverID)

	lock := s.locks.Get(orderID)
	lock.Lock()

	order, err := s.orders.Get(ctx, orderID)
	if errors.Is(err, myerrors.ErrOrderNotFound) {
		lock.Unlock()
		observability.AcceptsTotal.WithLabelValues(string(model.NotFound)).Inc()
		return model.NotFound, nil
	}
	if err != nil {
		lock.Unlock()
		return "", err
	}

	// Idempotent retry: the driver who already won gets a success, with no
	// second counter increment.
	if order.AcceptedBy == driverID {
		lock.Unlock()
		observability.AcceptsTotal.WithLabelValues(string(model.Accepted)).Inc()
		return model.Accepted, nil
	}
	// Claimed by someone else, or the offer already resolved (expired,
	// canceled, finished): a late claim, rejected.
	if order.AcceptedBy != "" || order.Status != model.StatusOffered {
		lock.Unlock()
		observability.AcceptsTotal.WithLabelValues(string(model.AlreadyTaken)).Inc()
		log.Info("late or duplicate claim rejected", "status", order.Status, "accepted_by", order.AcceptedBy)
		return model.AlreadyTaken, nil
	}

	driver, err := s.drivers.Get(ctx, driverID)
	if err != nil {
		lock.Unlock()
		return "", fmt.Errorf("load accepting driver: %w", err)
	}
	if driver.ActiveOrderID != "" && driver.ActiveOrderID != orderID {
		lock.Unlock()
		return "", fmt.Errorf("%w: active order %s", myerrors.ErrDriverBusy, driver.ActiveOrderID)
	}

	acceptedAt := s.now()
	order.Status = model.StatusAccepted
	order.AcceptedBy = driverID
	order.AcceptedAt = &acceptedAt
	driver.ActiveOrderID = orderID
	driver.Today.Accepted++

	// both records must be durable before the lock is released
	if err := s.orders.Put(ctx, order); err != nil {
		lock.Unlock()
		return "", fmt.Errorf("persist accepted order: %w", err)
	}
	if err := s.drivers.Put(ctx, driver); err != nil {
		lock.Unlock()
		return "", fmt.Errorf("persist accepting driver: %w", err)
	}
	lock.Unlock()

	observability.AcceptsTotal.WithLabelValues(string(model.Accepted)).Inc()
	log.Info("order accepted")

	s.withdrawPending(ctx, orderID, driverID, "taken")
	s.publishConfirmation(ctx, messagebrokerdto.Confirmation{
		Status:   messagebrokerdto.ConfirmAccepted,
		OrderID:  orderID,
		DriverID: driverID,
		Driver:   messagebrokerdto.NewDriverCard(&driver),
		Pickup:   &order.Pickup,
		Dropoff:  &order.Dropoff,
	})
	return model.Accepted, nil
}

// Decline is bookkeeping only: the driver stops holding the offer card and
// the daily counter moves. Order status never changes on a decline.
func (s *DispatchService) Decline(ctx context.Context, orderID, driverID string) error {
	s.dropPending(orderID, driverID)

	driver, err := s.drivers.Get(ctx, driverID)
	if err != nil {
		return err
	}
	driver.Today.Declined++
	if err := s.drivers.Put(ctx, driver); err != nil {
		return fmt.Errorf("persist declining driver: %w", err)
	}
	s.mylog.Action("Decline").Info("offer declined", "order_id", orderID, "driver_id", driverID)
	return nil
}

// Arrived marks the driver at the pickup point and tells the passenger how
// long the free waiting window is.
func (s *DispatchService) Arrived(ctx context.Context, orderID, driverID string) error {
	order, err := s.transition(ctx, orderID, driverID, model.StatusArrived, model.StatusAccepted)
	if err != nil {
		return err
	}
	s.publishConfirmation(ctx, messagebrokerdto.Confirmation{
		Status:      messagebrokerdto.ConfirmArrived,
		OrderID:     order.ID,
		DriverID:    driverID,
		FreeWaitMin: s.opts.FreeWaitMin,
	})
	return nil
}

// StartTrip moves the order to in_progress. Starting straight from
// accepted is allowed: drivers skip the arrived tap when the passenger is
// already at the curb.
func (s *DispatchService) StartTrip(ctx context.Context, orderID, driverID string) error {
	_, err := s.transition(ctx, orderID, driverID, model.StatusInProgress,
		model.StatusArrived, model.StatusAccepted)
	return err
}

// Finish completes the trip: the order is done, the driver's day rolls
// forward and the driver's position moves to the dropoff point.
func (s *DispatchService) Finish(ctx context.Context, orderID, driverID string) error {
	log := s.mylog.Action("Finish").With("order_id", orderID, "driver_id", driverID)

	lock := s.locks.Get(orderID)
	lock.Lock()

	order, driver, err := s.ownedOrder(ctx, orderID, driverID)
	if err != nil {
		lock.Unlock()
		return err
	}
	if order.Status != model.StatusInProgress {
		lock.Unlock()
		return fmt.Errorf("%w: finish from %s", myerrors.ErrInvalidTransition, order.Status)
	}

	finishedAt := s.now()
	order.Status = model.StatusDone
	order.FinishedAt = &finishedAt

	driver.Today.Trips++
	driver.Today.Earn += order.Price
	driver.ActiveOrderID = ""
	// driver stays online and is now positioned at the dropoff
	if order.Dropoff.Coords != nil {
		loc := *order.Dropoff.Coords
		driver.LastLocation = &loc
	}

	if err := s.orders.Put(ctx, order); err != nil {
		lock.Unlock()
		return fmt.Errorf("persist finished order: %w", err)
	}
	if err := s.drivers.Put(ctx, driver); err != nil {
		lock.Unlock()
		return fmt.Errorf("persist finishing driver: %w", err)
	}
	lock.Unlock()

	observability.TripsFinished.Inc()
	log.Info("trip finished", "earn", order.Price)

	s.publishConfirmation(ctx, messagebrokerdto.Confirmation{
		Status:   messagebrokerdto.ConfirmFinished,
		OrderID:  orderID,
		DriverID: driverID,
	})
	if s.locator != nil && driver.LastLocation != nil {
		if err := s.locator.Update(ctx, driverID, *driver.LastLocation); err != nil {
			log.Warn("geo index update failed", "driver_id", driverID)
		}
	}
	s.locks.Evict(orderID)
	return nil
}

// Cancel is the re-dispatch branch: the accepted driver walks away, the
// passenger side is told, and the order goes straight back to searching
// with a fresh offer cycle.
func (s *DispatchService) Cancel(ctx context.Context, orderID, driverID string) error {
	log := s.mylog.Action("Cancel").With("order_id", orderID, "driver_id", driverID)

	lock := s.locks.Get(orderID)
	lock.Lock()

	order, driver, err := s.ownedOrder(ctx, orderID, driverID)
	if err != nil {
		lock.Unlock()
		return err
	}
	switch order.Status {
	case model.StatusAccepted, model.StatusArrived, model.StatusInProgress:
	default:
		lock.Unlock()
		return fmt.Errorf("%w: cancel from %s", myerrors.ErrInvalidTransition, order.Status)
	}

	canceledAt := s.now()
	order.Status = model.StatusCanceled
	order.CanceledAt = &canceledAt
	order.AcceptedBy = ""

	driver.ActiveOrderID = ""
	driver.Today.Canceled++
	// the canceling driver stays online for the next offer

	if err := s.orders.Put(ctx, order); err != nil {
		lock.Unlock()
		return fmt.Errorf("persist canceled order: %w", err)
	}
	if err := s.drivers.Put(ctx, driver); err != nil {
		lock.Unlock()
		return fmt.Errorf("persist canceling driver: %w", err)
	}
	lock.Unlock()

	observability.TripsCanceled.Inc()
	log.Info("trip canceled by driver")

	s.publishConfirmation(ctx, messagebrokerdto.Confirmation{
		Status:      messagebrokerdto.ConfirmDriverCancelled,
		OrderID:     orderID,
		PassengerID: order.PassengerID(),
	})

	// back into the pool with the same id; reload first so a republish
	// landing between the two locked sections is not overwritten
	lock.Lock()
	order, err = s.orders.Get(ctx, orderID)
	if err != nil {
		lock.Unlock()
		return fmt.Errorf("reload canceled order: %w", err)
	}
	order.Status = model.StatusSearching
	if err := s.orders.Put(ctx, order); err != nil {
		lock.Unlock()
		return fmt.Errorf("persist re-opened order: %w", err)
	}
	lock.Unlock()

	return s.Dispatch(ctx, orderID)
}

// transition applies a caller-owned status move under the order lock.
func (s *DispatchService) transition(ctx context.Context, orderID, driverID string, to model.OrderStatus, from ...model.OrderStatus) (model.Order, error) {
	lock := s.locks.Get(orderID)
	lock.Lock()
	defer lock.Unlock()

	order, _, err := s.ownedOrder(ctx, orderID, driverID)
	if err != nil {
		return model.Order{}, err
	}

	allowed := false
	for _, f := range from {
		if order.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return model.Order{}, fmt.Errorf("%w: %s from %s", myerrors.ErrInvalidTransition, to, order.Status)
	}

	stamp := s.now()
	order.Status = to
	switch to {
	case model.StatusArrived:
		order.ArrivedAt = &stamp
	case model.StatusInProgress:
		order.StartedAt = &stamp
	}
	if err := s.orders.Put(ctx, order); err != nil {
		return model.Order{}, fmt.Errorf("persist transition to %s: %w", to, err)
	}

	s.mylog.Action("transition").Info("order moved",
		"order_id", orderID, "driver_id", driverID, "status", to)
	return order, nil
}

// ownedOrder loads the order and verifies the caller is the accepted
// driver. Callers must hold the order lock.
func (s *DispatchService) ownedOrder(ctx context.Context, orderID, driverID string) (model.Order, model.Driver, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return model.Order{}, model.Driver{}, err
	}
	if order.AcceptedBy != driverID {
		return model.Order{}, model.Driver{}, myerrors.ErrNotYourOrder
	}
	driver, err := s.drivers.Get(ctx, driverID)
	if err != nil {
		return model.Order{}, model.Driver{}, err
	}
	return order, driver, nil
}
