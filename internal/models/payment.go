package models

import "encoding/json"

// CreateOrderRequest is the create-order endpoint payload.
// Amount is whole currency units; json.Number keeps 2.5 distinguishable from 2.
type CreateOrderRequest struct {
	BookingID string      `json:"bookingId"`
	Amount    json.Number `json:"amount"`
}

// CreateOrderResponse never carries the provider secret, only the publishable key id
type CreateOrderResponse struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"` // minor units, as returned by the provider
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

// VerifyPaymentRequest is the provider completion receipt plus our booking id
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	BookingID         string `json:"booking_id"`
}

// VerificationResult is the reported outcome of a verification.
// Kind is set on failures so the handler can choose a status code.
type VerificationResult struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Error   string    `json:"error,omitempty"`
	Kind    ErrorKind `json:"-"`
}

// PaymentMethod selects the hosted-checkout or manual flow variant
type PaymentMethod string

const (
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodQR       PaymentMethod = "qr"
	PaymentMethodGPay     PaymentMethod = "gpay"
	PaymentMethodPhonePe  PaymentMethod = "phonepe"
	PaymentMethodPaytm    PaymentMethod = "paytm"
	PaymentMethodOtherUPI PaymentMethod = "other_upi"
	PaymentMethodUPILink  PaymentMethod = "upi_link"
)

// IsManual reports whether the method settles out-of-band via a UPI deep link
func (m PaymentMethod) IsManual() bool {
	return m == PaymentMethodUPILink
}

// CheckoutRequest starts payment for a booking
type CheckoutRequest struct {
	Method PaymentMethod `json:"method"`
}

// CheckoutResponse carries either the hosted-widget options or the manual UPI link
type CheckoutResponse struct {
	BookingID    string                 `json:"bookingId"`
	Mode         VerificationMode       `json:"verificationMode"`
	Order        *CreateOrderResponse   `json:"order,omitempty"`
	CheckoutOpts map[string]interface{} `json:"checkoutOptions,omitempty"`
	UPILink      string                 `json:"upiLink,omitempty"`
	Availability LocationAvailability   `json:"availability"`
}

// HostedCompleteRequest is the widget success callback payload
type HostedCompleteRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// SelfReportOutcome is the customer's own claim about a manual payment
type SelfReportOutcome string

const (
	SelfReportPaid   SelfReportOutcome = "paid"
	SelfReportFailed SelfReportOutcome = "failed"
)

// SelfReportRequest is the "I've paid" / "payment failed" payload
type SelfReportRequest struct {
	Outcome SelfReportOutcome `json:"outcome"`
}
