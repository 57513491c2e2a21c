package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/napcube/pod-reservation-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// AuditService writes the payment audit trail
type AuditService struct {
	store  AuditStore
	logger *logrus.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(store AuditStore, logger *logrus.Logger) *AuditService {
	return &AuditService{
		store:  store,
		logger: logger,
	}
}

// Record persists an audit entry. A failed write is logged and never
// changes the outcome of the operation being audited.
func (s *AuditService) Record(ctx context.Context, audit *models.PaymentAudit) {
	if s == nil || s.store == nil || audit == nil {
		return
	}

	// Audit writes must land even if the request was cancelled mid-flight
	if err := s.store.Log(context.WithoutCancel(ctx), audit); err != nil {
		fields := logrus.Fields{
			"event_type":   audit.EventType,
			"event_source": audit.EventSource,
		}
		if audit.BookingID != nil {
			fields["booking_id"] = audit.BookingID.String()
		}
		s.logger.WithError(err).WithFields(fields).Error("Failed to record payment audit")
	}
}

// ListByBooking returns the audit trail of one booking, oldest first
func (s *AuditService) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*models.PaymentAudit, error) {
	audits, err := s.store.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, storageError("failed to load audit trail", err)
	}
	return audits, nil
}
