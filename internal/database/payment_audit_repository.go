package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/napcube/pod-reservation-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// PaymentAuditRepository handles payment audit operations
type PaymentAuditRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewPaymentAuditRepository creates a new payment audit repository
func NewPaymentAuditRepository(db *sqlx.DB, logger *logrus.Logger) *PaymentAuditRepository {
	return &PaymentAuditRepository{
		db:     db,
		logger: logger,
	}
}

// Log creates a new payment audit entry
func (r *PaymentAuditRepository) Log(ctx context.Context, audit *models.PaymentAudit) error {
	if audit == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}

	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payment_audits (
			id, booking_id, event_type, event_source,
			razorpay_order_id, razorpay_payment_id, amount, currency,
			error_message, ip_address, user_agent, device_type, browser,
			created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12, $13,
			$14
		)`

	_, err := r.db.ExecContext(ctx, query,
		audit.ID, audit.BookingID, audit.EventType, audit.EventSource,
		audit.RazorpayOrderID, audit.RazorpayPaymentID, audit.Amount, audit.Currency,
		audit.ErrorMessage, audit.IPAddress, audit.UserAgent, audit.DeviceType, audit.Browser,
		audit.CreatedAt,
	)

	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"event_type": audit.EventType,
			"booking_id": audit.BookingID,
		}).Error("CRITICAL: Failed to log payment audit")
		return fmt.Errorf("failed to log payment audit: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"audit_id":   audit.ID,
		"event_type": audit.EventType,
		"booking_id": audit.BookingID,
	}).Debug("Payment audit logged")

	return nil
}

// ListByBooking retrieves all audit entries for a booking, oldest first
func (r *PaymentAuditRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*models.PaymentAudit, error) {
	audits := []*models.PaymentAudit{}
	query := `
		SELECT id, booking_id, event_type, event_source,
			razorpay_order_id, razorpay_payment_id, amount, currency,
			error_message, ip_address, user_agent, device_type, browser,
			created_at
		FROM payment_audits
		WHERE booking_id = $1
		ORDER BY created_at ASC`

	err := r.db.SelectContext(ctx, &audits, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get audits by booking ID: %w", err)
	}

	return audits, nil
}
