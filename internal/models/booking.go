package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// BOOKING STATUSES
// ============================================================================

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusFailed    BookingStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusConfirmed || s == BookingStatusFailed
}

// CanTransitionTo reports whether s -> next is a legal transition
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	return s == BookingStatusPending && next.IsTerminal()
}

// PaymentStatus represents whether the provider reported the booking as paid
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// VerificationMode records how a confirmation was established
type VerificationMode string

const (
	// VerificationCryptographic is a provider receipt checked with the shared secret
	VerificationCryptographic VerificationMode = "cryptographic"
	// VerificationSelfReported is the customer's own "I've paid" claim (manual UPI / QR)
	VerificationSelfReported VerificationMode = "self_reported"
)

// Failure reasons stored on failed bookings
const (
	FailureReasonCancelled         = "cancelled"
	FailureReasonExpired           = "expired"
	FailureReasonCapacityExhausted = "capacity_exhausted"
	FailureReasonPaymentAbandoned  = "payment_abandoned"
)

// ============================================================================
// BOOKING (bookings table)
// ============================================================================

// Booking is a reservation of one pod at a location for a date and slot
type Booking struct {
	ID                uuid.UUID         `db:"id" json:"id"`
	LocationID        uuid.UUID         `db:"location_id" json:"location_id"`
	CustomerName      string            `db:"customer_name" json:"customer_name"`
	CustomerEmail     string            `db:"customer_email" json:"customer_email"`
	CustomerPhone     *string           `db:"customer_phone" json:"customer_phone,omitempty"`
	BookingDate       string            `db:"booking_date" json:"booking_date"` // YYYY-MM-DD
	BookingTime       string            `db:"booking_time" json:"booking_time"` // HH:MM
	Duration          string            `db:"duration" json:"duration"`
	Price             int64             `db:"price" json:"price"`
	Status            BookingStatus     `db:"status" json:"status"`
	PaymentStatus     PaymentStatus     `db:"payment_status" json:"payment_status"`
	RazorpayOrderID   *string           `db:"razorpay_order_id" json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID *string           `db:"razorpay_payment_id" json:"razorpay_payment_id,omitempty"`
	VerificationMode  *VerificationMode `db:"verification_mode" json:"verification_mode,omitempty"`
	FailureReason     *string           `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}

// HasOrder reports whether the booking is linked to the given provider order
func (b *Booking) HasOrder(orderID string) bool {
	return b.RazorpayOrderID != nil && *b.RazorpayOrderID == orderID
}

// ============================================================================
// REQUEST / RESPONSE TYPES
// ============================================================================

// CreateBookingRequest is the client-facing booking request
type CreateBookingRequest struct {
	LocationID    string `json:"location_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	BookingDate   string `json:"booking_date"`
	BookingTime   string `json:"booking_time"`
	Duration      string `json:"duration"`
	Price         int64  `json:"price"`
}

// StatusUpdate carries the optional fields applied together with a status transition
type StatusUpdate struct {
	Status            BookingStatus
	PaymentStatus     *PaymentStatus
	RazorpayPaymentID *string
	VerificationMode  *VerificationMode
	FailureReason     *string
}

// Validate restricts generic updates to failing a pending booking.
// Paid bookings must be confirmed, so a paid payment status is never accepted here.
func (u StatusUpdate) Validate() error {
	if !BookingStatusPending.CanTransitionTo(u.Status) {
		return NewValidationError(fmt.Sprintf("invalid target status: %s", u.Status))
	}
	if u.Status != BookingStatusFailed {
		return NewValidationError("bookings are confirmed only through payment verification")
	}
	if u.PaymentStatus != nil && *u.PaymentStatus == PaymentStatusPaid {
		return NewValidationError("paid bookings must be confirmed")
	}
	return nil
}

// ConfirmParams describes a capacity-checked confirmation.
// OrderID and PaymentID are empty for self-reported confirmations.
type ConfirmParams struct {
	BookingID uuid.UUID
	OrderID   string
	PaymentID string
	Mode      VerificationMode
}

// ConfirmOutcome distinguishes a fresh confirmation from an idempotent repeat
type ConfirmOutcome int

const (
	ConfirmOutcomeConfirmed ConfirmOutcome = iota
	ConfirmOutcomeAlreadyConfirmed
	ConfirmOutcomeCapacityExhausted
)
