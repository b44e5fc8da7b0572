package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OffersBroadcast = promauto.NewCounter(prometheus.CounterOpts{Namespace: "flytaxi", Name: "offers_broadcast_total", Help: "Orders pushed to at least one eligible driver"})
	OffersEmpty     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "flytaxi", Name: "offers_empty_total", Help: "Dispatch attempts with no eligible drivers"})
	OffersExpired   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "flytaxi", Name: "offers_expired_total", Help: "Offers that timed out without acceptance"})

	AcceptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "flytaxi", Name: "accepts_total", Help: "Accept attempts by outcome"},
		[]string{"outcome"},
	)

	TripsFinished      = promauto.NewCounter(prometheus.CounterOpts{Namespace: "flytaxi", Name: "trips_finished_total", Help: "Trips driven to completion"})
	TripsCanceled      = promauto.NewCounter(prometheus.CounterOpts{Namespace: "flytaxi", Name: "trips_canceled_total", Help: "Trips canceled by the accepted driver"})
	ConfirmationErrors = promauto.NewCounter(prometheus.CounterOpts{Namespace: "flytaxi", Name: "confirmation_publish_errors_total", Help: "Outbound confirmation publish failures"})

	DriversOnline = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "flytaxi", Name: "drivers_online", Help: "Drivers currently online"})

	DispatchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "flytaxi",
		Name:      "dispatch_latency_seconds",
		Help:      "Time from inbound order to offer broadcast",
		Buckets:   prometheus.DefBuckets,
	})
)
