package models

import "time"

// PaymentMethod represents how a booking was paid
type PaymentMethod string

const (
	PaymentMethodCard      PaymentMethod = "CARD"
	PaymentMethodApplePay  PaymentMethod = "APPLE_PAY"
	PaymentMethodGooglePay PaymentMethod = "GOOGLE_PAY"
)

// Valid reports whether m is one of the supported methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodApplePay, PaymentMethodGooglePay:
		return true
	}
	return false
}

// PaymentStatus represents the state of a payment
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Payment records one payment attempt for a booking
type Payment struct {
	ID             int64         `json:"id" db:"id"`
	BookingID      int64         `json:"booking_id" db:"booking_id"`
	Amount         float64       `json:"amount" db:"amount"`
	Method         PaymentMethod `json:"method" db:"method"`
	Status         PaymentStatus `json:"status" db:"status"`
	TransactionRef string        `json:"transaction_ref" db:"transaction_ref"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// CreatePaymentRequest is the passenger request body for paying a booking
type CreatePaymentRequest struct {
	BookingID int64         `json:"booking_id" binding:"required"`
	Method    PaymentMethod `json:"method" binding:"required"`
}
