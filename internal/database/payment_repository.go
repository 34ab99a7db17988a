package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/airhive/airline-backend/internal/models"
)

// PaymentRepository handles payment database operations
type PaymentRepository struct {
	db DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db DB) *PaymentRepository {
	return &PaymentRepository{
		db: db,
	}
}

// CreatePayment records a payment attempt inside tx
func (r *PaymentRepository) CreatePayment(tx *sqlx.Tx, payment *models.Payment) error {
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	query := `
		INSERT INTO payments (
			booking_id, amount, method, status, transaction_ref,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := tx.QueryRow(
		query,
		payment.BookingID,
		payment.Amount,
		payment.Method,
		payment.Status,
		payment.TransactionRef,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Scan(&payment.ID)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// UpdatePaymentStatus sets the payment status inside tx
func (r *PaymentRepository) UpdatePaymentStatus(tx *sqlx.Tx, id int64, status models.PaymentStatus) error {
	query := `
		UPDATE payments
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := tx.Exec(query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("payment not found")
	}

	return nil
}

// ListPaymentsByBooking retrieves a booking's payments, oldest first
func (r *PaymentRepository) ListPaymentsByBooking(bookingID int64) ([]models.Payment, error) {
	var payments []models.Payment

	query := `
		SELECT id, booking_id, amount, method, status, transaction_ref,
		       created_at, updated_at
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at
	`

	err := r.db.Select(&payments, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments by booking: %w", err)
	}

	return payments, nil
}
