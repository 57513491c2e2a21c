package validator

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidOrderID indicates the provider order id does not look like order_XXXXXXXXXXXXXX
	ErrInvalidOrderID = errors.New("invalid razorpay order id format")

	// ErrInvalidPaymentID indicates the provider payment id does not look like pay_XXXXXXXXXXXXXX
	ErrInvalidPaymentID = errors.New("invalid razorpay payment id format")

	// ErrInvalidSignature indicates the signature is not 64 hex characters
	ErrInvalidSignature = errors.New("invalid razorpay signature format")

	// ErrInvalidBookingID indicates the booking id is not a UUID
	ErrInvalidBookingID = errors.New("invalid booking id format")

	// ErrAmountNotNumber indicates the amount is missing or not numeric
	ErrAmountNotNumber = errors.New("amount must be a number")

	// ErrAmountNotInteger indicates a fractional amount
	ErrAmountNotInteger = errors.New("amount must be a whole number")

	// ErrAmountNotPositive indicates a zero or negative amount
	ErrAmountNotPositive = errors.New("amount must be greater than zero")

	// ErrAmountTooLarge indicates the amount exceeds the accepted upper bound
	ErrAmountTooLarge = errors.New("amount exceeds the maximum allowed")
)

var (
	orderIDRegex   = regexp.MustCompile(`^order_[A-Za-z0-9]{14,}$`)
	paymentIDRegex = regexp.MustCompile(`^pay_[A-Za-z0-9]{14,}$`)
	signatureRegex = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)
	uuidRegex      = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[1-5][0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)
)

// ValidateOrderID checks a Razorpay order id
func ValidateOrderID(orderID string) error {
	if !orderIDRegex.MatchString(orderID) {
		return ErrInvalidOrderID
	}
	return nil
}

// ValidatePaymentID checks a Razorpay payment id
func ValidatePaymentID(paymentID string) error {
	if !paymentIDRegex.MatchString(paymentID) {
		return ErrInvalidPaymentID
	}
	return nil
}

// ValidateSignature checks that a signature is a hex-encoded SHA-256 digest
func ValidateSignature(signature string) error {
	if !signatureRegex.MatchString(signature) {
		return ErrInvalidSignature
	}
	return nil
}

// ParseBookingID validates and parses a booking id.
// Only canonical hyphenated RFC 4122 UUIDs are accepted; uuid.Parse alone also takes braces and urn: prefixes.
func ParseBookingID(raw string) (uuid.UUID, error) {
	if !uuidRegex.MatchString(raw) {
		return uuid.Nil, ErrInvalidBookingID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidBookingID
	}
	return id, nil
}

// ParseAmount validates a whole-unit amount: an integer with 0 < amount <= max.
// Integral floats such as 360.0 are accepted; 2.5 is not.
func ParseAmount(raw json.Number, max int64) (int64, error) {
	s := strings.TrimSpace(raw.String())
	if s == "" {
		return 0, ErrAmountNotNumber
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return checkAmountRange(n, max)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrAmountNotNumber
	}
	if f != math.Trunc(f) {
		return 0, ErrAmountNotInteger
	}
	if f > float64(max) {
		return 0, ErrAmountTooLarge
	}
	return checkAmountRange(int64(f), max)
}

func checkAmountRange(n, max int64) (int64, error) {
	if n <= 0 {
		return 0, ErrAmountNotPositive
	}
	if n > max {
		return 0, ErrAmountTooLarge
	}
	return n, nil
}
