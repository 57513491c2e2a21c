package validator

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used for booking dates
const DateLayout = "2006-01-02"

var (
	// ErrInvalidEmail indicates a malformed customer email
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidDate indicates a booking date that is not YYYY-MM-DD
	ErrInvalidDate = errors.New("booking date must be in YYYY-MM-DD format")

	// ErrInvalidTimeSlot indicates a booking time that is not HH:MM
	ErrInvalidTimeSlot = errors.New("booking time must be in HH:MM format")
)

var timeSlotRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ValidateEmail checks a bare email address (no display name)
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return ErrInvalidEmail
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD calendar day without time zone arithmetic
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// ValidateTimeSlot checks a 24h HH:MM slot label such as "14:00"
func ValidateTimeSlot(slot string) error {
	if !timeSlotRegex.MatchString(slot) {
		return ErrInvalidTimeSlot
	}
	return nil
}
