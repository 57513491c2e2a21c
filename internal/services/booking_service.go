package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/napcube/pod-reservation-backend/internal/config"
	"github.com/napcube/pod-reservation-backend/internal/metrics"
	"github.com/napcube/pod-reservation-backend/internal/models"
	"github.com/napcube/pod-reservation-backend/pkg/validator"
	"github.com/sirupsen/logrus"
)

const maxCustomerNameLength = 100

// BookingService manages the booking lifecycle: create, read, transition, cancel and reap
type BookingService struct {
	bookings     BookingStore
	locations    LocationStore
	availability *AvailabilityService
	audit        *AuditService
	phone        *validator.PhoneValidator
	config       config.BookingConfig
	logger       *logrus.Logger
	now          func() time.Time
}

// NewBookingService creates a new booking service
func NewBookingService(
	bookings BookingStore,
	locations LocationStore,
	availability *AvailabilityService,
	audit *AuditService,
	cfg config.BookingConfig,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookings:     bookings,
		locations:    locations,
		availability: availability,
		audit:        audit,
		phone:        validator.NewPhoneValidator(),
		config:       cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// Create validates the request and inserts a pending, unpaid booking.
// Nothing is persisted when validation fails.
func (s *BookingService) Create(ctx context.Context, req *models.CreateBookingRequest) (*models.Booking, error) {
	booking, err := s.buildBooking(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.locations.GetByID(ctx, booking.LocationID); err != nil {
		return nil, storageError("failed to load location", err)
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, storageError("failed to create booking", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"location_id": booking.LocationID,
		"date":        booking.BookingDate,
		"time":        booking.BookingTime,
	}).Info("Booking created")

	return booking, nil
}

func (s *BookingService) buildBooking(req *models.CreateBookingRequest) (*models.Booking, error) {
	if req == nil {
		return nil, models.NewValidationError("request body is required")
	}

	locationID, err := uuid.Parse(strings.TrimSpace(req.LocationID))
	if err != nil {
		return nil, models.NewValidationError("location_id must be a valid UUID")
	}

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return nil, models.NewValidationError("customer_name is required")
	}
	if len(name) > maxCustomerNameLength {
		return nil, models.NewValidationError("customer_name is too long")
	}

	email := strings.TrimSpace(req.CustomerEmail)
	if err := validator.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if _, err := validator.ParseDate(req.BookingDate); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validator.ValidateTimeSlot(req.BookingTime); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	duration := strings.TrimSpace(req.Duration)
	if duration == "" {
		return nil, models.NewValidationError("duration is required")
	}

	if req.Price <= 0 {
		return nil, models.NewValidationError("price must be greater than zero")
	}

	var phone *string
	if raw := strings.TrimSpace(req.CustomerPhone); raw != "" {
		sanitized, err := s.phone.Validate(raw)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		phone = &sanitized
	}

	return &models.Booking{
		LocationID:    locationID,
		CustomerName:  name,
		CustomerEmail: email,
		CustomerPhone: phone,
		BookingDate:   req.BookingDate,
		BookingTime:   req.BookingTime,
		Duration:      duration,
		Price:         req.Price,
	}, nil
}

// Get returns a booking by id
func (s *BookingService) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, storageError("failed to load booking", err)
	}
	return booking, nil
}

// UpdateStatus fails a pending booking. Confirmation targets are a ValidationError
// because confirming goes through payment verification and its capacity re-check.
// Terminal bookings yield a ConflictError, unknown ids a NotFoundError.
func (s *BookingService) UpdateStatus(ctx context.Context, id uuid.UUID, update models.StatusUpdate) (*models.Booking, error) {
	booking, err := s.bookings.UpdateStatus(ctx, id, update)
	if err != nil {
		return nil, storageError("failed to update booking status", err)
	}

	metrics.IncTransition(string(booking.Status), "update")
	return booking, nil
}

// Cancel marks a pending booking failed. The row is kept for the audit trail.
func (s *BookingService) Cancel(ctx context.Context, id uuid.UUID, client models.ClientInfo) (*models.Booking, error) {
	booking, err := s.bookings.MarkFailed(ctx, id, models.FailureReasonCancelled)
	if err != nil {
		return nil, storageError("failed to cancel booking", err)
	}

	metrics.IncTransition(string(models.BookingStatusFailed), models.FailureReasonCancelled)
	s.audit.Record(ctx, models.NewPaymentAudit(models.PaymentEventBookingCancelled, models.PaymentSourceCustomer).
		SetBooking(booking.ID).
		SetClient(client))

	s.logger.WithField("booking_id", id).Info("Booking cancelled")
	return booking, nil
}

// ReapStale fails pending bookings older than the configured TTL and returns how many were expired
func (s *BookingService) ReapStale(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.config.PendingTTL)
	batch := s.config.ReaperBatch
	if batch <= 0 {
		batch = 200
	}

	total := 0
	for {
		ids, err := s.bookings.ExpireStalePending(ctx, cutoff, batch)
		if err != nil {
			return total, storageError("failed to expire pending bookings", err)
		}

		for _, id := range ids {
			s.audit.Record(ctx, models.NewPaymentAudit(models.PaymentEventBookingExpired, models.PaymentSourceSystem).
				SetBooking(id))
		}
		total += len(ids)

		if len(ids) < batch {
			break
		}
	}

	if total > 0 {
		metrics.AddTransitions(string(models.BookingStatusFailed), models.FailureReasonExpired, total)
		s.availability.InvalidateAll(ctx)
		s.logger.WithFields(logrus.Fields{
			"expired": total,
			"cutoff":  cutoff,
		}).Info("Expired stale pending bookings")
	}

	return total, nil
}
