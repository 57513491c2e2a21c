package upi

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidPayee indicates a missing or malformed virtual payment address
var ErrInvalidPayee = errors.New("invalid UPI payee address")

var vpaRegex = regexp.MustCompile(`^[A-Za-z0-9._-]{2,256}@[A-Za-z][A-Za-z0-9.-]{1,64}$`)

// Payment describes one manual UPI collection
type Payment struct {
	PayeeID   string // VPA, e.g. napcube@upi
	PayeeName string
	Amount    int64 // whole rupees
	Currency  string
	Note      string
}

// Link builds the upi://pay deep link opened by UPI apps
func Link(p Payment) (string, error) {
	if !vpaRegex.MatchString(p.PayeeID) {
		return "", ErrInvalidPayee
	}
	currency := p.Currency
	if currency == "" {
		currency = "INR"
	}

	return fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%d&cu=%s&tn=%s",
		p.PayeeID,
		escape(p.PayeeName),
		p.Amount,
		currency,
		escape(p.Note),
	), nil
}

// TransactionNote derives the note shown in the payer's app: {merchant}-{booking prefix}-{location}-{time}
func TransactionNote(merchant, bookingID, location, slot string) string {
	prefix := bookingID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	parts := []string{merchant, prefix}
	if location != "" {
		parts = append(parts, location)
	}
	if slot != "" {
		parts = append(parts, slot)
	}
	return strings.Join(parts, "-")
}

// escape percent-encodes like a URI component (spaces as %20, not +)
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
