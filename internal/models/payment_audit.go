package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEventType represents the type of payment event
type PaymentEventType string

const (
	PaymentEventOrderCreated          PaymentEventType = "order_created"
	PaymentEventOrderFailed           PaymentEventType = "order_failed"
	PaymentEventOrderUnlinked         PaymentEventType = "order_unlinked"
	PaymentEventVerificationSucceeded PaymentEventType = "verification_succeeded"
	PaymentEventVerificationFailed    PaymentEventType = "verification_failed"
	PaymentEventReplayRejected        PaymentEventType = "replay_rejected"
	PaymentEventDuplicateReceipt      PaymentEventType = "duplicate_receipt"
	PaymentEventCapacityConflict      PaymentEventType = "capacity_conflict"
	PaymentEventLatePayment           PaymentEventType = "late_payment"
	PaymentEventSelfReportedPaid      PaymentEventType = "self_reported_paid"
	PaymentEventSelfReportedFailed    PaymentEventType = "self_reported_failed"
	PaymentEventBookingCancelled      PaymentEventType = "booking_cancelled"
	PaymentEventBookingExpired        PaymentEventType = "booking_expired"
)

// PaymentEventSource identifies where the event originated
type PaymentEventSource string

const (
	PaymentSourceBackend  PaymentEventSource = "backend"
	PaymentSourceRazorpay PaymentEventSource = "razorpay"
	PaymentSourceCustomer PaymentEventSource = "customer"
	PaymentSourceSystem   PaymentEventSource = "system"
)

// PaymentAudit is an immutable audit log entry for a payment event
type PaymentAudit struct {
	ID                uuid.UUID          `json:"id" db:"id"`
	BookingID         *uuid.UUID         `json:"booking_id,omitempty" db:"booking_id"`
	EventType         PaymentEventType   `json:"event_type" db:"event_type"`
	EventSource       PaymentEventSource `json:"event_source" db:"event_source"`
	RazorpayOrderID   *string            `json:"razorpay_order_id,omitempty" db:"razorpay_order_id"`
	RazorpayPaymentID *string            `json:"razorpay_payment_id,omitempty" db:"razorpay_payment_id"`
	Amount            *int64             `json:"amount,omitempty" db:"amount"`
	Currency          *string            `json:"currency,omitempty" db:"currency"`
	ErrorMessage      *string            `json:"error_message,omitempty" db:"error_message"`
	IPAddress         *string            `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent         *string            `json:"user_agent,omitempty" db:"user_agent"`
	DeviceType        *string            `json:"device_type,omitempty" db:"device_type"`
	Browser           *string            `json:"browser,omitempty" db:"browser"`
	CreatedAt         time.Time          `json:"created_at" db:"created_at"`
}

// NewPaymentAudit creates a new payment audit entry with required fields
func NewPaymentAudit(eventType PaymentEventType, source PaymentEventSource) *PaymentAudit {
	return &PaymentAudit{
		ID:          uuid.New(),
		EventType:   eventType,
		EventSource: source,
		CreatedAt:   time.Now(),
	}
}

// SetBooking sets the booking ID for the audit
func (pa *PaymentAudit) SetBooking(bookingID uuid.UUID) *PaymentAudit {
	pa.BookingID = &bookingID
	return pa
}

// SetOrder sets the provider order ID
func (pa *PaymentAudit) SetOrder(orderID string) *PaymentAudit {
	if orderID != "" {
		pa.RazorpayOrderID = &orderID
	}
	return pa
}

// SetPayment sets the provider payment ID
func (pa *PaymentAudit) SetPayment(paymentID string) *PaymentAudit {
	if paymentID != "" {
		pa.RazorpayPaymentID = &paymentID
	}
	return pa
}

// SetAmount sets the amount and currency
func (pa *PaymentAudit) SetAmount(amount int64, currency string) *PaymentAudit {
	pa.Amount = &amount
	pa.Currency = &currency
	return pa
}

// SetError records the failure detail (server-side only)
func (pa *PaymentAudit) SetError(err error) *PaymentAudit {
	if err != nil {
		msg := err.Error()
		pa.ErrorMessage = &msg
	}
	return pa
}

// SetClient records where the request came from
func (pa *PaymentAudit) SetClient(client ClientInfo) *PaymentAudit {
	if client.IPAddress != "" {
		pa.IPAddress = &client.IPAddress
	}
	if client.UserAgent != "" {
		pa.UserAgent = &client.UserAgent
	}
	if client.DeviceType != "" {
		pa.DeviceType = &client.DeviceType
	}
	if client.Browser != "" {
		pa.Browser = &client.Browser
	}
	return pa
}

// ClientInfo describes the caller of a payment operation
type ClientInfo struct {
	IPAddress  string
	UserAgent  string
	DeviceType string
	Browser    string
}
