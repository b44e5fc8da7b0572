package myhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flytaxi/config"
	"flytaxi/internal/dispatch-service/adapters/driven/bm"
	"flytaxi/internal/dispatch-service/adapters/driven/consumer"
	"flytaxi/internal/dispatch-service/adapters/driven/geoindex"
	"flytaxi/internal/dispatch-service/adapters/driven/store"
	"flytaxi/internal/dispatch-service/adapters/driver/myhttp/handle"
	"flytaxi/internal/dispatch-service/adapters/driver/myhttp/middleware"
	"flytaxi/internal/dispatch-service/adapters/driver/myhttp/ws"
	"flytaxi/internal/dispatch-service/core/ports"
	"flytaxi/internal/dispatch-service/core/services"
	"flytaxi/internal/mylogger"
)

const WaitTime = 10

type Server struct {
	mux    *http.ServeMux
	cfg    *config.Config
	srv    *http.Server
	mylog  mylogger.Logger
	mb     *bm.RabbitMQ
	geo    *geoindex.RedisIndex
	ctx    context.Context
	appCtx context.Context
	mu     sync.Mutex
}

func NewServer(ctx, appCtx context.Context, mylog mylogger.Logger, cfg *config.Config) *Server {
	return &Server{
		ctx:    ctx,
		appCtx: appCtx,
		cfg:    cfg,
		mylog:  mylog,
		mux:    http.NewServeMux(),
	}
}

// Run wires the adapters into the core and starts listening. It returns
// when the server stops.
func (s *Server) Run() error {
	mylog := s.mylog.Action("server_started")

	orders, err := store.NewOrderStore(s.cfg.Storage.Dir)
	if err != nil {
		return fmt.Errorf("failed to open order store: %w", err)
	}
	drivers, err := store.NewDriverStore(s.cfg.Storage.Dir)
	if err != nil {
		return fmt.Errorf("failed to open driver store: %w", err)
	}
	mylog.Info("storage ready", "dir", s.cfg.Storage.Dir)

	mb, err := bm.New(s.appCtx, s.cfg.RabbitMq, s.mylog)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	s.mb = mb
	mylog.Info("successful message broker connection")

	// the geo index is optional; without it every dispatch scans the
	// whole roster
	var locator ports.ILocationIndex
	if s.cfg.Redis.Addr != "" {
		geo, err := geoindex.New(s.appCtx, s.cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.geo = geo
		locator = geo
		mylog.Info("geo index connected", "addr", s.cfg.Redis.Addr)
	}

	hub := ws.NewHub(s.mylog)
	matcher := services.NewMatcher(s.mylog, s.cfg.Dispatch.DefaultPickupKm)
	dispatchService := services.NewDispatchService(
		s.mylog, orders, drivers, mb, hub, locator, matcher,
		services.DispatchOptions{
			OfferTimeout: s.cfg.Dispatch.OfferTimeout,
			FreeWaitMin:  s.cfg.Dispatch.FreeWaitMin,
		},
	)
	rosterService := services.NewRosterService(
		s.mylog, drivers, orders, locator,
		s.cfg.Auth.AccessSecret, s.cfg.Auth.TokenTTL,
	)

	if err := dispatchService.Resume(s.appCtx); err != nil {
		return fmt.Errorf("failed to resume offered orders: %w", err)
	}
	go dispatchService.RunRescan(s.appCtx, s.cfg.Dispatch.RescanInterval)

	orderConsumer := consumer.New(s.appCtx, s.mylog, mb, dispatchService)
	if err := orderConsumer.Run(); err != nil {
		return fmt.Errorf("failed to start order consumer: %w", err)
	}
	mylog.Info("order consumer running", "queue", s.cfg.RabbitMq.OrdersQueue)

	s.Configure(dispatchService, rosterService, hub)

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%v", s.cfg.Srv.DispatchServicePort),
		Handler: s.mux,
	}
	s.mu.Unlock()

	mylog = mylog.WithGroup("details").With("port", s.cfg.Srv.DispatchServicePort)
	mylog.Info("server is running")
	return s.startHTTPServer()
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Info("shutting down HTTP server...")

	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, WaitTime*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.mylog.Error("failed to shut down HTTP server gracefully", err)
			return fmt.Errorf("http server shutdown: %w", err)
		}
	}

	if s.mb != nil {
		if err := s.mb.Close(); err != nil {
			s.mylog.Error("failed to close message broker", err)
			return fmt.Errorf("broker close: %w", err)
		}
	}
	if s.geo != nil {
		if err := s.geo.Close(); err != nil {
			s.mylog.Error("failed to close geo index", err)
			return fmt.Errorf("geo index close: %w", err)
		}
	}

	s.mylog.Info("HTTP server shut down gracefully")
	return nil
}

func (s *Server) startHTTPServer() error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-s.ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Configure registers the driver-facing API, the offer stream and the
// operational endpoints.
func (s *Server) Configure(dispatchService ports.IDispatchService, rosterService ports.IRosterService, hub *ws.Hub) {
	driverHandler := handle.NewDriverHandler(rosterService, dispatchService, s.mylog)
	authMiddleware := middleware.NewAuthMiddleware(s.cfg.Auth.AccessSecret)

	// open routes
	s.mux.Handle("POST /drivers", driverHandler.Register())
	s.mux.Handle("POST /drivers/login", driverHandler.Login())

	// driver routes
	s.mux.Handle("POST /drivers/online", authMiddleware.Wrap(driverHandler.GoOnline()))
	s.mux.Handle("POST /drivers/offline", authMiddleware.Wrap(driverHandler.GoOffline()))
	s.mux.Handle("POST /drivers/location", authMiddleware.Wrap(driverHandler.UpdateLocation()))
	s.mux.Handle("PATCH /drivers/settings", authMiddleware.Wrap(driverHandler.UpdateSettings()))
	s.mux.Handle("GET /drivers/me", authMiddleware.Wrap(driverHandler.Me()))

	s.mux.Handle("POST /orders/{order_id}/accept", authMiddleware.Wrap(driverHandler.Accept()))
	s.mux.Handle("POST /orders/{order_id}/decline", authMiddleware.Wrap(driverHandler.Decline()))
	s.mux.Handle("POST /orders/{order_id}/arrived", authMiddleware.Wrap(driverHandler.Arrived()))
	s.mux.Handle("POST /orders/{order_id}/start", authMiddleware.Wrap(driverHandler.StartTrip()))
	s.mux.Handle("POST /orders/{order_id}/finish", authMiddleware.Wrap(driverHandler.Finish()))
	s.mux.Handle("POST /orders/{order_id}/cancel", authMiddleware.Wrap(driverHandler.Cancel()))

	// websocket offer stream
	s.mux.Handle("/ws/drivers", authMiddleware.Wrap(hub.StreamHandler()))

	// operator routes
	s.mux.Handle("POST /admin/drivers/{driver_id}/approve", authMiddleware.WrapAdmin(driverHandler.Approve()))
	s.mux.Handle("GET /admin/overview", authMiddleware.WrapAdmin(driverHandler.Overview()))

	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !s.mb.IsAlive() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"broker":       s.mb.IsAlive(),
			"stream_conns": hub.Connected(),
		})
	})
}
