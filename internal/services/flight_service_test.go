package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airhive/airline-backend/internal/apperrors"
	"github.com/airhive/airline-backend/internal/config"
	"github.com/airhive/airline-backend/internal/database"
	"github.com/airhive/airline-backend/internal/models"
)

func stateMachineConfig() config.BookingConfig {
	return config.BookingConfig{
		SeatHoldWindow:     10 * time.Minute,
		CancelDeadline:     time.Hour,
		BoardingOffset:     30 * time.Minute,
		CompletionOffset:   15 * time.Minute,
		CheckInOpenBefore:  24 * time.Hour,
		CheckInCloseBefore: time.Hour,
		PNRAttempts:        20,
	}
}

func TestNextAutomaticStatus(t *testing.T) {
	svc := &FlightService{cfg: stateMachineConfig()}

	departure := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	arrival := departure.Add(2 * time.Hour)

	tests := []struct {
		name       string
		status     models.FlightStatus
		now        time.Time
		wantStatus models.FlightStatus
		wantChange bool
	}{
		{"Scheduled Well Before Boarding", models.FlightStatusScheduled, departure.Add(-2 * time.Hour), models.FlightStatusScheduled, false},
		{"Scheduled At Boarding Boundary", models.FlightStatusScheduled, departure.Add(-30 * time.Minute), models.FlightStatusBoarding, true},
		{"Delayed Advances Like Scheduled", models.FlightStatusDelayed, departure.Add(-10 * time.Minute), models.FlightStatusBoarding, true},
		{"Boarding Before Departure", models.FlightStatusBoarding, departure.Add(-time.Minute), models.FlightStatusBoarding, false},
		{"Boarding At Departure", models.FlightStatusBoarding, departure, models.FlightStatusDeparted, true},
		{"Departed Before Arrival", models.FlightStatusDeparted, arrival.Add(-time.Minute), models.FlightStatusDeparted, false},
		{"Departed At Arrival", models.FlightStatusDeparted, arrival, models.FlightStatusArrived, true},
		{"Arrived Before Completion", models.FlightStatusArrived, arrival.Add(10 * time.Minute), models.FlightStatusArrived, false},
		{"Arrived At Completion", models.FlightStatusArrived, arrival.Add(15 * time.Minute), models.FlightStatusCompleted, true},
		{"Cancelled Never Moves", models.FlightStatusCancelled, arrival.Add(time.Hour), models.FlightStatusCancelled, false},
		{"Completed Never Moves", models.FlightStatusCompleted, arrival.Add(time.Hour), models.FlightStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flight := &models.Flight{
				Status:        tt.status,
				DepartureTime: departure,
				ArrivalTime:   arrival,
			}
			got, changed := svc.NextAutomaticStatus(flight, tt.now)
			assert.Equal(t, tt.wantChange, changed)
			assert.Equal(t, tt.wantStatus, got)
		})
	}
}

func TestProcessAutomaticUpdatesCatchUp(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	logger := testLogger()

	flightRepo := database.NewFlightRepository(mockDB)
	bookingRepo := database.NewBookingRepository(mockDB)
	notificationRepo := database.NewNotificationRepository(mockDB)
	notifier := NewNotificationService(notificationRepo, bookingRepo, nil, logger)

	svc := &FlightService{
		flightRepo:  flightRepo,
		bookingRepo: bookingRepo,
		notifier:    notifier,
		cfg:         stateMachineConfig(),
		logger:      logger,
		now:         time.Now,
	}

	// One flight that slept through its whole lifecycle: it must walk
	// SCHEDULED -> BOARDING -> DEPARTED -> ARRIVED -> COMPLETED in a
	// single sweep, one step at a time.
	departure := time.Now().Add(-3 * time.Hour)
	arrival := time.Now().Add(-time.Hour)

	flightColumns := []string{
		"id", "flight_number", "departure_airport_id", "arrival_airport_id",
		"departure_time", "arrival_time", "airplane_id", "status",
		"base_price", "gate", "created_at",
	}
	bookingColumns := []string{"id", "user_id", "flight_id", "status", "pnr", "created_at"}

	mock.ExpectQuery(`SELECT (.+) FROM flights WHERE status`).
		WillReturnRows(sqlmock.NewRows(flightColumns).AddRow(
			int64(1), "AH101", int64(1), int64(2),
			departure, arrival, int64(1), "SCHEDULED",
			120.0, "A1", time.Now().Add(-24*time.Hour),
		))

	// BOARDING: status update plus passenger fan-out (no bookings).
	mock.ExpectExec(`UPDATE flights SET status`).
		WithArgs(string(models.FlightStatusBoarding), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE flight_id`).
		WillReturnRows(sqlmock.NewRows(bookingColumns))

	// DEPARTED: same shape.
	mock.ExpectExec(`UPDATE flights SET status`).
		WithArgs(string(models.FlightStatusDeparted), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE flight_id`).
		WillReturnRows(sqlmock.NewRows(bookingColumns))

	// ARRIVED and COMPLETED advance silently.
	mock.ExpectExec(`UPDATE flights SET status`).
		WithArgs(string(models.FlightStatusArrived), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE flights SET status`).
		WithArgs(string(models.FlightStatusCompleted), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	transitions, err := svc.ProcessAutomaticUpdates()
	require.NoError(t, err)
	require.Len(t, transitions, 4)

	assert.Equal(t, models.FlightStatusScheduled, transitions[0].OldStatus)
	assert.Equal(t, models.FlightStatusBoarding, transitions[0].NewStatus)
	assert.Equal(t, models.FlightStatusCompleted, transitions[3].NewStatus)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessAutomaticUpdatesLeavesFutureFlightsAlone(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	logger := testLogger()

	svc := &FlightService{
		flightRepo: database.NewFlightRepository(mockDB),
		cfg:        stateMachineConfig(),
		logger:     logger,
		now:        time.Now,
	}

	departure := time.Now().Add(6 * time.Hour)

	mock.ExpectQuery(`SELECT (.+) FROM flights WHERE status`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "flight_number", "departure_airport_id", "arrival_airport_id",
			"departure_time", "arrival_time", "airplane_id", "status",
			"base_price", "gate", "created_at",
		}).AddRow(
			int64(2), "AH202", int64(1), int64(2),
			departure, departure.Add(2*time.Hour), int64(1), "SCHEDULED",
			99.0, "B2", time.Now(),
		))

	transitions, err := svc.ProcessAutomaticUpdates()
	require.NoError(t, err)
	assert.Empty(t, transitions)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelFlightCascade(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	logger := testLogger()

	bookingRepo := database.NewBookingRepository(mockDB)
	notificationRepo := database.NewNotificationRepository(mockDB)

	svc := &FlightService{
		db:          mockDB,
		flightRepo:  database.NewFlightRepository(mockDB),
		bookingRepo: bookingRepo,
		seatRepo:    database.NewSeatRepository(mockDB),
		notifier:    NewNotificationService(notificationRepo, bookingRepo, nil, logger),
		cfg:         stateMachineConfig(),
		logger:      logger,
		now:         time.Now,
	}

	// Three active bookings across two passengers. Every booking is
	// cancelled and its seats released in the same transaction that
	// cancels the flight, and each passenger hears about it once.
	mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE flight_id`).
		WillReturnRows(sqlmock.NewRows(bookingColumns).
			AddRow(int64(4), int64(10), int64(20), "CONFIRMED", "AAAAAA", time.Now().Add(-time.Hour)).
			AddRow(int64(5), int64(10), int64(20), "CREATED", "BBBBBB", time.Now().Add(-time.Minute)).
			AddRow(int64(6), int64(11), int64(20), "CONFIRMED", "CCCCCC", time.Now().Add(-2*time.Hour)))

	for _, bookingID := range []int64{4, 5, 6} {
		mock.ExpectQuery(`SELECT seat_id FROM tickets`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow(bookingID + 10))
	}

	mock.ExpectBegin()
	for _, bookingID := range []int64{4, 5, 6} {
		mock.ExpectExec(`UPDATE bookings SET status`).
			WithArgs(string(models.BookingStatusCancelled), bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE seats SET status`).
			WithArgs(string(models.SeatStatusAvailable), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(`UPDATE flights SET status`).
		WithArgs(string(models.FlightStatusCancelled), int64(20)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// One notification per distinct passenger, not per booking.
	mock.ExpectQuery(`INSERT INTO notifications`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(`INSERT INTO notifications`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))

	flight := &models.Flight{
		ID:           20,
		FlightNumber: "AH101",
		Status:       models.FlightStatusScheduled,
	}

	require.NoError(t, svc.CancelFlight(flight))
	assert.Equal(t, models.FlightStatusCancelled, flight.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelFlightRejectsTerminalFlight(t *testing.T) {
	svc := &FlightService{cfg: stateMachineConfig(), logger: testLogger()}

	flight := &models.Flight{
		ID:           20,
		FlightNumber: "AH101",
		Status:       models.FlightStatusCompleted,
	}

	err := svc.CancelFlight(flight)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}
