package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airhive/airline-backend/internal/models"
)

func TestCreateBooking(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewBookingRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO bookings`).
			WithArgs(int64(10), int64(20), string(models.BookingStatusCreated), "A1B2C3", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))
		mock.ExpectCommit()

		tx, err := mockDB.Beginx()
		require.NoError(t, err)

		booking, err := repo.CreateBooking(tx, 10, 20, "A1B2C3")
		require.NoError(t, err)
		require.NoError(t, tx.Commit())

		assert.Equal(t, int64(1), booking.ID)
		assert.Equal(t, models.BookingStatusCreated, booking.Status)
		assert.Equal(t, "A1B2C3", booking.PNR)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnError(fmt.Errorf("database error"))
		mock.ExpectRollback()

		tx, err := mockDB.Beginx()
		require.NoError(t, err)

		booking, err := repo.CreateBooking(tx, 10, 20, "A1B2C3")
		assert.Error(t, err)
		assert.Nil(t, booking)
		assert.Contains(t, err.Error(), "failed to create booking")
		require.NoError(t, tx.Rollback())

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetBookingByPNR(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewBookingRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE pnr`).
			WithArgs("XY12Z9").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "user_id", "flight_id", "status", "pnr", "created_at",
			}).AddRow(
				int64(4), int64(10), int64(20), "CONFIRMED", "XY12Z9", now,
			))

		booking, err := repo.GetBookingByPNR("XY12Z9")
		require.NoError(t, err)
		require.NotNil(t, booking)
		assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
		assert.Equal(t, int64(10), booking.UserID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE pnr`).
			WithArgs("NOPE42").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "user_id", "flight_id", "status", "pnr", "created_at",
			}))

		booking, err := repo.GetBookingByPNR("NOPE42")
		require.NoError(t, err)
		assert.Nil(t, booking)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListExpiredBookings(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewBookingRepository(mockDB)

	t.Run("Covers Both Unpaid Statuses", func(t *testing.T) {
		cutoff := time.Now().Add(-10 * time.Minute)
		createdAt := cutoff.Add(-time.Minute)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE status`).
			WithArgs(pq.Array([]string{
				string(models.BookingStatusCreated),
				string(models.BookingStatusPendingPayment),
			}), cutoff).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "user_id", "flight_id", "status", "pnr", "created_at",
			}).
				AddRow(int64(4), int64(10), int64(20), "CREATED", "AAAAAA", createdAt).
				AddRow(int64(5), int64(11), int64(20), "PENDING_PAYMENT", "BBBBBB", createdAt))

		bookings, err := repo.ListExpiredBookings(cutoff)
		require.NoError(t, err)
		require.Len(t, bookings, 2)
		assert.Equal(t, models.BookingStatusCreated, bookings[0].Status)
		assert.Equal(t, models.BookingStatusPendingPayment, bookings[1].Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetTicketsByBookingID(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewBookingRepository(mockDB)

	t.Run("Joins Seat Rows", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM tickets t JOIN seats s`).
			WithArgs(int64(4)).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "booking_id", "seat_id",
				"passenger_first_name", "passenger_last_name", "ticket_number",
				"s_id", "airplane_id", "seat_number", "status", "category", "held_until",
			}).AddRow(
				int64(1), int64(4), int64(7),
				"Jane", "Doe", "TKA1B2C3D4",
				int64(7), int64(1), "12A", "BOOKED", "STANDARD", nil,
			))

		tickets, err := repo.GetTicketsByBookingID(4)
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, "TKA1B2C3D4", tickets[0].TicketNumber)
		assert.Equal(t, "12A", tickets[0].Seat.SeatNumber)
		assert.Equal(t, models.SeatStatusBooked, tickets[0].Seat.Status)
		assert.Nil(t, tickets[0].Seat.HeldUntil)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIsSeatBookedOnFlight(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewBookingRepository(mockDB)

	t.Run("Occupied", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(int64(20), int64(7), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		occupied, err := repo.IsSeatBookedOnFlight(20, 7)
		require.NoError(t, err)
		assert.True(t, occupied)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
