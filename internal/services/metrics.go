package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Total number of bookings created",
	})

	bookingsConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_confirmed_total",
		Help: "Total number of bookings confirmed",
	})

	bookingsCancelledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_cancelled_total",
		Help: "Total number of cancelled bookings",
	}, []string{"reason"})

	bookingsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_expired_total",
		Help: "Total number of bookings expired by the reconciliation loop",
	})

	seatsHeldTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seats_held_total",
		Help: "Total number of seats placed on hold",
	})

	seatHoldsReleasedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seat_holds_released_total",
		Help: "Total number of expired seat holds released",
	})

	paymentAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_attempts_total",
		Help: "Total number of payment attempts",
	}, []string{"status"})

	flightTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flight_transitions_total",
		Help: "Total number of automatic flight status transitions",
	}, []string{"to"})

	checkInsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "check_ins_total",
		Help: "Total number of completed check-ins",
	})

	notificationsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Total number of notifications stored",
	}, []string{"kind"})

	reconciliationRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconciliation_runs_total",
		Help: "Total number of reconciliation loop runs",
	})
)
