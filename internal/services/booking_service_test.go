package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airhive/airline-backend/internal/apperrors"
	"github.com/airhive/airline-backend/internal/database"
	"github.com/airhive/airline-backend/internal/models"
)

func newBookingService(t *testing.T) (*BookingService, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock := newMockDatabase(t)
	logger := testLogger()

	bookingRepo := database.NewBookingRepository(mockDB)
	notificationRepo := database.NewNotificationRepository(mockDB)

	return &BookingService{
		db:          mockDB,
		bookingRepo: bookingRepo,
		seatRepo:    database.NewSeatRepository(mockDB),
		flightRepo:  database.NewFlightRepository(mockDB),
		airportRepo: database.NewAirportRepository(mockDB),
		paymentRepo: database.NewPaymentRepository(mockDB),
		userRepo:    database.NewUserRepository(mockDB),
		checkInRepo: database.NewCheckInRepository(mockDB),
		notifier:    NewNotificationService(notificationRepo, bookingRepo, nil, logger),
		cfg:         stateMachineConfig(),
		logger:      logger,
		now:         time.Now,
	}, mock
}

var (
	bookingColumns = []string{"id", "user_id", "flight_id", "status", "pnr", "created_at"}
	seatColumns    = []string{"id", "airplane_id", "seat_number", "status", "category", "held_until"}
)

func TestCreateBookingRequiresProfile(t *testing.T) {
	svc, mock := newBookingService(t)

	mock.ExpectQuery(`SELECT (.+) FROM passenger_profiles`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	detail, err := svc.CreateBooking(10, &models.CreateBookingRequest{FlightID: 1, SeatIDs: []int64{1}})
	require.Error(t, err)
	assert.Nil(t, detail)
	assert.Equal(t, apperrors.KindPreconditionFailed, apperrors.KindOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayRejectsNonCreatedBooking(t *testing.T) {
	svc, mock := newBookingService(t)

	mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(bookingColumns).AddRow(
			int64(4), int64(10), int64(20), "CONFIRMED", "AAAAAA", time.Now(),
		))

	payment, err := svc.Pay(10, &models.CreatePaymentRequest{
		BookingID: 4,
		Method:    models.PaymentMethodCard,
	})
	require.Error(t, err)
	assert.Nil(t, payment)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayRejectsForeignBooking(t *testing.T) {
	svc, mock := newBookingService(t)

	mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(bookingColumns).AddRow(
			int64(4), int64(99), int64(20), "CREATED", "AAAAAA", time.Now(),
		))

	payment, err := svc.Pay(10, &models.CreatePaymentRequest{
		BookingID: 4,
		Method:    models.PaymentMethodCard,
	})
	require.Error(t, err)
	assert.Nil(t, payment)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayExpiresLapsedBooking(t *testing.T) {
	svc, mock := newBookingService(t)

	// The booking sat unpaid past its window: Pay must expire it,
	// release the seats and refuse the payment.
	createdAt := time.Now().Add(-11 * time.Minute)

	mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(bookingColumns).AddRow(
			int64(4), int64(10), int64(20), "CREATED", "AAAAAA", createdAt,
		))

	mock.ExpectQuery(`SELECT seat_id FROM tickets`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow(int64(7)))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM seats`).
		WillReturnRows(sqlmock.NewRows(seatColumns).AddRow(
			int64(7), int64(1), "12B", "HELD", "STANDARD", createdAt.Add(10*time.Minute),
		))
	mock.ExpectExec(`UPDATE bookings SET status`).
		WithArgs(string(models.BookingStatusCancelled), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE seats SET status`).
		WithArgs(string(models.SeatStatusAvailable), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(`INSERT INTO notifications`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	payment, err := svc.Pay(10, &models.CreatePaymentRequest{
		BookingID: 4,
		Method:    models.PaymentMethodCard,
	})
	require.Error(t, err)
	assert.Nil(t, payment)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "book again")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayRejectsUnknownMethod(t *testing.T) {
	svc, _ := newBookingService(t)

	payment, err := svc.Pay(10, &models.CreatePaymentRequest{
		BookingID: 4,
		Method:    "BARTER",
	})
	require.Error(t, err)
	assert.Nil(t, payment)
	assert.Equal(t, apperrors.KindPreconditionFailed, apperrors.KindOf(err))
}

func TestAllocatePNRRetriesOnCollision(t *testing.T) {
	svc, mock := newBookingService(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	pnr, err := svc.allocatePNR()
	require.NoError(t, err)
	assert.Len(t, pnr, 6)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingDeadline(t *testing.T) {
	svc, _ := newBookingService(t)

	departure := time.Now().Add(30 * time.Minute)
	flight := &models.Flight{
		FlightNumber:  "AH101",
		Status:        models.FlightStatusScheduled,
		DepartureTime: departure,
	}

	t.Run("Passenger Inside Deadline", func(t *testing.T) {
		err := svc.checkCancellationDeadline(flight, false)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	})

	t.Run("Staff Inside Deadline", func(t *testing.T) {
		assert.NoError(t, svc.checkCancellationDeadline(flight, true))
	})

	t.Run("Passenger Well Before Departure", func(t *testing.T) {
		early := &models.Flight{
			Status:        models.FlightStatusScheduled,
			DepartureTime: time.Now().Add(3 * time.Hour),
		}
		assert.NoError(t, svc.checkCancellationDeadline(early, false))
	})

	t.Run("Departed Flight Blocks Everyone", func(t *testing.T) {
		departed := &models.Flight{
			Status:        models.FlightStatusDeparted,
			DepartureTime: time.Now().Add(-time.Hour),
		}
		err := svc.checkCancellationDeadline(departed, true)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	})
}

func TestHoldSeat(t *testing.T) {
	t.Run("Available Seat Is Held", func(t *testing.T) {
		svc, mock := newBookingService(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM seats`).
			WillReturnRows(sqlmock.NewRows(seatColumns).AddRow(
				int64(7), int64(1), "12B", "AVAILABLE", "STANDARD", nil,
			))
		mock.ExpectExec(`UPDATE seats SET status`).
			WithArgs(string(models.SeatStatusHeld), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		seat, err := svc.HoldSeat(7)
		require.NoError(t, err)
		assert.Equal(t, models.SeatStatusHeld, seat.Status)
		require.NotNil(t, seat.HeldUntil)
		assert.WithinDuration(t, time.Now().Add(10*time.Minute), *seat.HeldUntil, time.Minute)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Live Hold Conflicts", func(t *testing.T) {
		svc, mock := newBookingService(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM seats`).
			WillReturnRows(sqlmock.NewRows(seatColumns).AddRow(
				int64(7), int64(1), "12B", "HELD", "STANDARD", time.Now().Add(5*time.Minute),
			))
		mock.ExpectRollback()

		seat, err := svc.HoldSeat(7)
		require.Error(t, err)
		assert.Nil(t, seat)
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Lapsed Hold Is Taken Over", func(t *testing.T) {
		svc, mock := newBookingService(t)

		// The previous hold ran out, so the seat goes to whoever asks
		// next with a fresh window.
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM seats`).
			WillReturnRows(sqlmock.NewRows(seatColumns).AddRow(
				int64(7), int64(1), "12B", "HELD", "STANDARD", time.Now().Add(-time.Minute),
			))
		mock.ExpectExec(`UPDATE seats SET status`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		seat, err := svc.HoldSeat(7)
		require.NoError(t, err)
		assert.Equal(t, models.SeatStatusHeld, seat.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Booked Seat Conflicts", func(t *testing.T) {
		svc, mock := newBookingService(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM seats`).
			WillReturnRows(sqlmock.NewRows(seatColumns).AddRow(
				int64(7), int64(1), "12B", "BOOKED", "STANDARD", nil,
			))
		mock.ExpectRollback()

		seat, err := svc.HoldSeat(7)
		require.Error(t, err)
		assert.Nil(t, seat)
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Seat", func(t *testing.T) {
		svc, mock := newBookingService(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM seats`).
			WillReturnRows(sqlmock.NewRows(seatColumns))
		mock.ExpectRollback()

		seat, err := svc.HoldSeat(99)
		require.Error(t, err)
		assert.Nil(t, seat)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPayExpiresStalePendingPayment(t *testing.T) {
	svc, mock := newBookingService(t)

	// A confirmed-but-unpaid booking runs on the same clock as a fresh
	// one. An hour-old booking whose holds were already swept must be
	// expired, not settled: its seats may belong to someone else now.
	createdAt := time.Now().Add(-time.Hour)

	mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(bookingColumns).AddRow(
			int64(5), int64(10), int64(20), "PENDING_PAYMENT", "BBBBBB", createdAt,
		))

	mock.ExpectQuery(`SELECT seat_id FROM tickets`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow(int64(7)))

	// The seat is AVAILABLE again, so only the booking row changes.
	// Any write that re-books the seat would fail the expectations.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM seats`).
		WillReturnRows(sqlmock.NewRows(seatColumns).AddRow(
			int64(7), int64(1), "12B", "AVAILABLE", "STANDARD", nil,
		))
	mock.ExpectExec(`UPDATE bookings SET status`).
		WithArgs(string(models.BookingStatusCancelled), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(`INSERT INTO notifications`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	payment, err := svc.Pay(10, &models.CreatePaymentRequest{
		BookingID: 5,
		Method:    models.PaymentMethodCard,
	})
	require.Error(t, err)
	assert.Nil(t, payment)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "book again")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaySettlesBookingInOneTransaction(t *testing.T) {
	svc, mock := newBookingService(t)

	createdAt := time.Now().Add(-2 * time.Minute)
	heldUntil := time.Now().Add(8 * time.Minute)
	departure := time.Now().Add(48 * time.Hour)

	mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(bookingColumns).AddRow(
			int64(4), int64(10), int64(20), "PENDING_PAYMENT", "AAAAAA", createdAt,
		))

	mock.ExpectQuery(`SELECT (.+) FROM flights WHERE id`).
		WithArgs(int64(20)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "flight_number", "departure_airport_id", "arrival_airport_id",
			"departure_time", "arrival_time", "airplane_id", "status",
			"base_price", "gate", "created_at",
		}).AddRow(
			int64(20), "AH101", int64(1), int64(2),
			departure, departure.Add(2*time.Hour), int64(1), "SCHEDULED",
			120.0, "A1", time.Now().Add(-24*time.Hour),
		))

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery(`SELECT seat_id FROM tickets`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow(int64(7)))

	// Lock seats, record and settle the payment, confirm the booking
	// and book the seats, all inside one transaction.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM seats`).
		WillReturnRows(sqlmock.NewRows(seatColumns).AddRow(
			int64(7), int64(1), "12B", "HELD", "STANDARD", heldUntil,
		))
	mock.ExpectQuery(`INSERT INTO payments`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec(`UPDATE payments SET status`).
		WithArgs(string(models.PaymentStatusPaid), sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bookings SET status`).
		WithArgs(string(models.BookingStatusConfirmed), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE seats SET status`).
		WithArgs(string(models.SeatStatusBooked), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(`INSERT INTO notifications`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	payment, err := svc.Pay(10, &models.CreatePaymentRequest{
		BookingID: 4,
		Method:    models.PaymentMethodCard,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, payment.Status)
	assert.Equal(t, 120.0, payment.Amount)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingConflictsOnHeldSeat(t *testing.T) {
	svc, mock := newBookingService(t)

	mock.ExpectQuery(`SELECT (.+) FROM passenger_profiles`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "first_name", "last_name", "date_of_birth",
			"passport_number", "phone", "nationality", "email",
			"created_at", "updated_at",
		}).AddRow(
			int64(1), int64(10), "Amal", "Perera",
			time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
			"N7654321", "+94771234567", "Sri Lankan", "amal@example.com",
			time.Now(), time.Now(),
		))

	mock.ExpectQuery(`SELECT (.+) FROM flights WHERE id`).
		WithArgs(int64(20)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "flight_number", "departure_airport_id", "arrival_airport_id",
			"departure_time", "arrival_time", "airplane_id", "status",
			"base_price", "gate", "created_at",
		}).AddRow(
			int64(20), "AH101", int64(1), int64(2),
			time.Now().Add(48*time.Hour), time.Now().Add(50*time.Hour), int64(1), "SCHEDULED",
			120.0, "A1", time.Now(),
		))

	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	// Another passenger's hold is still live: the row lock serializes
	// the two bookings and this one loses.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM seats`).
		WillReturnRows(sqlmock.NewRows(seatColumns).AddRow(
			int64(7), int64(1), "12B", "HELD", "STANDARD", time.Now().Add(5*time.Minute),
		))
	mock.ExpectRollback()

	detail, err := svc.CreateBooking(10, &models.CreateBookingRequest{FlightID: 20, SeatIDs: []int64{7}})
	require.Error(t, err)
	assert.Nil(t, detail)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "not available")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireStaleBookingsSweep(t *testing.T) {
	svc, mock := newBookingService(t)

	createdAt := time.Now().Add(-time.Hour)

	// The sweep picks up lapsed bookings in both unpaid statuses.
	mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE status`).
		WillReturnRows(sqlmock.NewRows(bookingColumns).
			AddRow(int64(4), int64(10), int64(20), "CREATED", "AAAAAA", createdAt).
			AddRow(int64(5), int64(11), int64(20), "PENDING_PAYMENT", "BBBBBB", createdAt))

	for _, booking := range []struct {
		id   int64
		seat int64
	}{{4, 7}, {5, 8}} {
		mock.ExpectQuery(`SELECT seat_id FROM tickets`).
			WithArgs(booking.id).
			WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow(booking.seat))

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM seats`).
			WillReturnRows(sqlmock.NewRows(seatColumns).AddRow(
				booking.seat, int64(1), "12B", "HELD", "STANDARD", createdAt.Add(10*time.Minute),
			))
		mock.ExpectExec(`UPDATE bookings SET status`).
			WithArgs(string(models.BookingStatusCancelled), booking.id).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE seats SET status`).
			WithArgs(string(models.SeatStatusAvailable), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		mock.ExpectQuery(`INSERT INTO notifications`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	}

	expired, err := svc.ExpireStaleBookings()
	require.NoError(t, err)
	assert.Equal(t, 2, expired)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReassignSeatAfterDeparture(t *testing.T) {
	svc, mock := newBookingService(t)

	ticketColumns := []string{
		"t.id", "t.booking_id", "t.seat_id",
		"t.passenger_first_name", "t.passenger_last_name", "t.ticket_number",
		"s.id", "s.airplane_id", "s.seat_number", "s.status", "s.category", "s.held_until",
	}

	mock.ExpectQuery(`SELECT (.+) FROM tickets t`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(ticketColumns).AddRow(
			int64(3), int64(4), int64(7), "Amal", "Perera", "TKT123456",
			int64(7), int64(1), "12B", "BOOKED", "STANDARD", nil,
		))

	mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(bookingColumns).AddRow(
			int64(4), int64(10), int64(20), "CONFIRMED", "AAAAAA", time.Now().Add(-48*time.Hour),
		))

	mock.ExpectQuery(`SELECT (.+) FROM flights WHERE id`).
		WithArgs(int64(20)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "flight_number", "departure_airport_id", "arrival_airport_id",
			"departure_time", "arrival_time", "airplane_id", "status",
			"base_price", "gate", "created_at",
		}).AddRow(
			int64(20), "AH101", int64(1), int64(2),
			time.Now().Add(-2*time.Hour), time.Now(), int64(1), "DEPARTED",
			120.0, "A1", time.Now().Add(-72*time.Hour),
		))

	// No seat lookup, no writes: the flight has left.
	ticket, err := svc.ReassignSeat(3, 9)
	require.Error(t, err)
	assert.Nil(t, ticket)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "already departed")

	assert.NoError(t, mock.ExpectationsWereMet())
}
