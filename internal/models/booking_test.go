package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatusCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{"Created To PendingPayment", BookingStatusCreated, BookingStatusPendingPayment, true},
		{"Created To Confirmed", BookingStatusCreated, BookingStatusConfirmed, true},
		{"Created To Cancelled", BookingStatusCreated, BookingStatusCancelled, true},
		{"PendingPayment To Confirmed", BookingStatusPendingPayment, BookingStatusConfirmed, true},
		{"PendingPayment To Created", BookingStatusPendingPayment, BookingStatusCreated, false},
		{"Confirmed To Cancelled", BookingStatusConfirmed, BookingStatusCancelled, true},
		{"Confirmed To PendingPayment", BookingStatusConfirmed, BookingStatusPendingPayment, false},
		{"Cancelled Is Terminal", BookingStatusCancelled, BookingStatusCreated, false},
		{"Cancelled To Confirmed", BookingStatusCancelled, BookingStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to))
		})
	}
}

func TestBookingIsExpired(t *testing.T) {
	now := time.Now()
	window := 10 * time.Minute

	t.Run("Fresh CREATED Booking", func(t *testing.T) {
		b := &Booking{Status: BookingStatusCreated, CreatedAt: now.Add(-5 * time.Minute)}
		assert.False(t, b.IsExpired(now, window))
	})

	t.Run("Stale CREATED Booking", func(t *testing.T) {
		b := &Booking{Status: BookingStatusCreated, CreatedAt: now.Add(-11 * time.Minute)}
		assert.True(t, b.IsExpired(now, window))
	})

	t.Run("Fresh PENDING_PAYMENT Booking", func(t *testing.T) {
		b := &Booking{Status: BookingStatusPendingPayment, CreatedAt: now.Add(-5 * time.Minute)}
		assert.False(t, b.IsExpired(now, window))
	})

	t.Run("Stale PENDING_PAYMENT Booking", func(t *testing.T) {
		// Confirming does not restart the clock; the window always
		// runs from creation.
		b := &Booking{Status: BookingStatusPendingPayment, CreatedAt: now.Add(-time.Hour)}
		assert.True(t, b.IsExpired(now, window))
	})

	t.Run("Confirmed Never Expires", func(t *testing.T) {
		b := &Booking{Status: BookingStatusConfirmed, CreatedAt: now.Add(-time.Hour)}
		assert.False(t, b.IsExpired(now, window))
	})
}
