package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	messagebrokerdto "flytaxi/internal/dispatch-service/core/domain/message_broker_dto"
	"flytaxi/internal/dispatch-service/core/domain/model"
	websocketdto "flytaxi/internal/dispatch-service/core/domain/websocket_dto"
	"flytaxi/internal/dispatch-service/core/myerrors"
	"flytaxi/internal/dispatch-service/core/ports"
	"flytaxi/internal/mylogger"
	"flytaxi/internal/observability"
)

// maxPickupKm caps the radius used for the optional geo-index prefilter;
// driver settings allow at most 10 km.
const maxPickupKm = 10.0

// DispatchOptions are the dispatch tunables, lifted out of config so the
// core stays free of the config package.
type DispatchOptions struct {
	OfferTimeout time.Duration
	FreeWaitMin  int
	// per-recipient delivery bound during fan-out
	SendTimeout time.Duration
}

func (o *DispatchOptions) withDefaults() {
	if o.OfferTimeout <= 0 {
		o.OfferTimeout = 120 * time.Second
	}
	if o.FreeWaitMin <= 0 {
		o.FreeWaitMin = 3
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = 5 * time.Second
	}
}

type DispatchService struct {
	mylog   mylogger.Logger
	orders  ports.IOrderStore
	drivers ports.IDriverStore
	confirm ports.IConfirmationPublisher
	notify  ports.INotifyWebsocket
	locator ports.ILocationIndex // nil disables the prefilter
	matcher *Matcher
	locks   *LockTable
	opts    DispatchOptions

	// pending offer bookkeeping: order id -> drivers still holding the
	// offer card. Declines remove entries; acceptance and expiry withdraw
	// the card from whoever is left.
	pendingMu sync.Mutex
	pending   map[string]map[string]struct{}

	now func() time.Time
}

func NewDispatchService(
	mylog mylogger.Logger,
	orders ports.IOrderStore,
	drivers ports.IDriverStore,
	confirm ports.IConfirmationPublisher,
	notify ports.INotifyWebsocket,
	locator ports.ILocationIndex,
	matcher *Matcher,
	opts DispatchOptions,
) *DispatchService {
	opts.withDefaults()
	return &DispatchService{
		mylog:   mylog,
		orders:  orders,
		drivers: drivers,
		confirm: confirm,
		notify:  notify,
		locator: locator,
		matcher: matcher,
		locks:   NewLockTable(),
		opts:    opts,
		pending: make(map[string]map[string]struct{}),
		now:     time.Now,
	}
}

// IngestOrder records an inbound order message and kicks off dispatch.
// A message without pickup coordinates is rejected whole: accepting it
// would create an order no driver can ever match.
func (s *DispatchService) IngestOrder(ctx context.Context, msg messagebrokerdto.OrderMessage) (model.Order, error) {
	log := s.mylog.Action("IngestOrder")

	if msg.PickupCoords() == nil {
		return model.Order{}, fmt.Errorf("%w: no pickup coordinates", myerrors.ErrInvalidOrder)
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
		log.Info("assigned order id", "order_id", msg.ID)
	}

	lock := s.locks.Get(msg.ID)
	lock.Lock()

	order := msg.ToOrder(s.now())
	existing, err := s.orders.Get(ctx, msg.ID)
	switch {
	case err == nil:
		// Same id seen before: update descriptive fields in place. An
		// order already claimed by a driver keeps its lifecycle fields so
		// a republish cannot un-accept it.
		if existing.AcceptedBy != "" || existing.Status == model.StatusDone {
			order.Status = existing.Status
			order.AcceptedBy = existing.AcceptedBy
			order.OfferedAt = existing.OfferedAt
			order.AcceptedAt = existing.AcceptedAt
			order.ArrivedAt = existing.ArrivedAt
			order.StartedAt = existing.StartedAt
			order.FinishedAt = existing.FinishedAt
		}
		order.CreatedAt = existing.CreatedAt
		log.Info("updating existing order in place", "order_id", msg.ID, "status", order.Status)
	case errors.Is(err, myerrors.ErrOrderNotFound):
		log.Info("creating order", "order_id", msg.ID, "tariff", msg.Tariff, "price", msg.Price)
	default:
		lock.Unlock()
		return model.Order{}, fmt.Errorf("load order: %w", err)
	}

	if err := s.orders.Put(ctx, order); err != nil {
		lock.Unlock()
		return model.Order{}, fmt.Errorf("persist order: %w", err)
	}
	lock.Unlock()

	if order.AcceptedBy == "" && !order.Status.Terminal() {
		if err := s.Dispatch(ctx, order.ID); err != nil {
			log.Error("dispatch after ingest failed", err, "order_id", order.ID)
		}
	}
	return order, nil
}

// Dispatch runs one offer cycle. The order lock is held only around the
// status mutation; the fan-out runs outside it so a slow recipient never
// blocks acceptance.
func (s *DispatchService) Dispatch(ctx context.Context, orderID string) error {
	log := s.mylog.Action("Dispatch").With("order_id", orderID)
	started := s.now()

	roster, err := s.loadRoster(ctx, orderID)
	if err != nil {
		return err
	}

	lock := s.locks.Get(orderID)
	lock.Lock()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		lock.Unlock()
		return err
	}
	if order.AcceptedBy != "" || order.Status.Terminal() {
		lock.Unlock()
		log.Warn("order no longer dispatchable", "status", order.Status)
		return nil
	}

	eligible := s.matcher.Match(order, roster)
	if len(eligible) == 0 {
		lock.Unlock()
		observability.OffersEmpty.Inc()
		log.Info("no nearby drivers", "status", order.Status)
		return nil
	}

	offeredAt := s.now()
	order.Status = model.StatusOffered
	order.AcceptedBy = ""
	order.OfferedAt = &offeredAt
	if err := s.orders.Put(ctx, order); err != nil {
		lock.Unlock()
		return fmt.Errorf("persist offered order: %w", err)
	}
	// registered before the lock drops so an instant accept can withdraw
	// from the full recipient set
	s.setPending(orderID, eligible)
	lock.Unlock()

	s.broadcast(ctx, order, eligible)
	time.AfterFunc(s.opts.OfferTimeout, func() {
		s.expireOffer(context.Background(), orderID)
	})

	observability.OffersBroadcast.Inc()
	observability.DispatchLatency.Observe(s.now().Sub(started).Seconds())
	log.Info("offer broadcast", "drivers", len(eligible), "timeout", s.opts.OfferTimeout)
	return nil
}

// loadRoster reads the driver snapshot, narrowed through the geo index
// when one is configured. Index failures fall back to the full roster.
func (s *DispatchService) loadRoster(ctx context.Context, orderID string) ([]model.Driver, error) {
	roster, err := s.drivers.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	if s.locator == nil {
		return roster, nil
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil || order.Pickup.Coords == nil {
		return roster, nil
	}
	nearby, err := s.locator.Nearby(ctx, *order.Pickup.Coords, maxPickupKm)
	if err != nil {
		s.mylog.Action("loadRoster").Warn("geo index unavailable, using full roster", "order_id", orderID)
		return roster, nil
	}

	inRange := make(map[string]struct{}, len(nearby))
	for _, id := range nearby {
		inRange[id] = struct{}{}
	}
	narrowed := roster[:0]
	for _, d := range roster {
		if _, ok := inRange[d.ID]; ok {
			narrowed = append(narrowed, d)
		}
	}
	return narrowed, nil
}

func (s *DispatchService) broadcast(ctx context.Context, order model.Order, driverIDs []string) {
	log := s.mylog.Action("broadcast").With("order_id", order.ID)

	offer := websocketdto.OrderOffer{
		OrderID:        order.ID,
		PickupAddress:  order.Pickup.Address,
		DropoffAddress: order.Dropoff.Address,
		DistanceKm:     order.DistanceKm,
		Tariff:         order.Tariff,
		Payment:        order.Payment,
		Price:          order.Price,
		EtaMin:         order.EtaMin,
		TimeoutSec:     int(s.opts.OfferTimeout / time.Second),
	}
	event, err := websocketdto.NewEvent(websocketdto.TypeOrderOffer, offer)
	if err != nil {
		log.Error("encode offer", err)
		return
	}

	var wg sync.WaitGroup
	for _, driverID := range driverIDs {
		wg.Add(1)
		go func(driverID string) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, s.opts.SendTimeout)
			defer cancel()
			if err := s.notify.WriteToDriver(sendCtx, driverID, event); err != nil {
				// unreachable recipient: logged, never retried here
				log.Warn("offer delivery failed", "driver_id", driverID, "reason", err.Error())
			}
		}(driverID)
	}
	wg.Wait()
}

// expireOffer fires after the offer timeout. It takes the same per-order
// lock as acceptance, so whichever gets there first wins the race and the
// other becomes a no-op.
func (s *DispatchService) expireOffer(ctx context.Context, orderID string) {
	log := s.mylog.Action("expireOffer").With("order_id", orderID)

	lock := s.locks.Get(orderID)
	lock.Lock()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		lock.Unlock()
		log.Warn("order vanished before expiry check")
		return
	}
	if order.Status != model.StatusOffered || order.AcceptedBy != "" {
		lock.Unlock()
		return
	}

	order.Status = model.StatusExpired
	if err := s.orders.Put(ctx, order); err != nil {
		lock.Unlock()
		log.Error("persist expired order", err)
		return
	}
	lock.Unlock()

	observability.OffersExpired.Inc()
	log.Info("offer expired, no driver accepted")

	s.withdrawPending(ctx, orderID, "", "expired")
	s.locks.Evict(orderID)
}

// Resume re-arms a fresh full offer timeout for every order left offered
// across a restart. Drivers may still be holding the offer card, so
// expiring such orders immediately would strand valid acceptances.
func (s *DispatchService) Resume(ctx context.Context) error {
	log := s.mylog.Action("Resume")

	offered, err := s.orders.ByStatus(ctx, model.StatusOffered)
	if err != nil {
		return fmt.Errorf("load offered orders: %w", err)
	}
	for _, order := range offered {
		orderID := order.ID
		time.AfterFunc(s.opts.OfferTimeout, func() {
			s.expireOffer(context.Background(), orderID)
		})
		log.Info("re-armed expiry timer", "order_id", orderID)
	}
	log.Info("resume complete", "offered", len(offered))
	return nil
}

// RunRescan periodically re-dispatches orders sitting in searching: the
// explicit retry policy for orders that found no eligible drivers. An
// interval of zero disables it.
func (s *DispatchService) RunRescan(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	log := s.mylog.Action("RunRescan")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			searching, err := s.orders.ByStatus(ctx, model.StatusSearching)
			if err != nil {
				log.Error("load searching orders", err)
				continue
			}
			for _, order := range searching {
				if err := s.Dispatch(ctx, order.ID); err != nil {
					log.Error("rescan dispatch failed", err, "order_id", order.ID)
				}
			}
		}
	}
}

func (s *DispatchService) setPending(orderID string, driverIDs []string) {
	set := make(map[string]struct{}, len(driverIDs))
	for _, id := range driverIDs {
		set[id] = struct{}{}
	}
	s.pendingMu.Lock()
	s.pending[orderID] = set
	s.pendingMu.Unlock()
}

func (s *DispatchService) dropPending(orderID, driverID string) {
	s.pendingMu.Lock()
	if set, ok := s.pending[orderID]; ok {
		delete(set, driverID)
	}
	s.pendingMu.Unlock()
}

// withdrawPending pulls the offer card from every driver still holding it,
// except the winner, and clears the bookkeeping.
func (s *DispatchService) withdrawPending(ctx context.Context, orderID, winnerID, reason string) {
	s.pendingMu.Lock()
	set := s.pending[orderID]
	delete(s.pending, orderID)
	s.pendingMu.Unlock()
	if len(set) == 0 {
		return
	}

	log := s.mylog.Action("withdrawPending").With("order_id", orderID)
	event, err := websocketdto.NewEvent(websocketdto.TypeOfferWithdrawn,
		websocketdto.OfferWithdrawn{OrderID: orderID, Reason: reason})
	if err != nil {
		log.Error("encode withdrawal", err)
		return
	}
	for driverID := range set {
		if driverID == winnerID {
			continue
		}
		sendCtx, cancel := context.WithTimeout(ctx, s.opts.SendTimeout)
		if err := s.notify.WriteToDriver(sendCtx, driverID, event); err != nil {
			log.Debug("withdrawal delivery failed", "driver_id", driverID)
		}
		cancel()
	}
}

// publishConfirmation is fire-and-forget: a publish failure is logged and
// counted, never propagated, and never rolls persisted state back.
func (s *DispatchService) publishConfirmation(ctx context.Context, c messagebrokerdto.Confirmation) {
	if err := s.confirm.PublishConfirmation(ctx, c); err != nil {
		observability.ConfirmationErrors.Inc()
		s.mylog.Action("publishConfirmation").Error("confirmation publish failed", err,
			"order_id", c.OrderID, "status", c.Status)
	}
}
