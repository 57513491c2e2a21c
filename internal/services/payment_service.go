package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/napcube/pod-reservation-backend/internal/config"
	"github.com/napcube/pod-reservation-backend/internal/metrics"
	"github.com/napcube/pod-reservation-backend/internal/models"
	"github.com/napcube/pod-reservation-backend/pkg/validator"
	"github.com/sirupsen/logrus"
)

// Client-facing verification messages. Details stay in the server log and audit trail.
const (
	msgPaymentVerified        = "Payment verified successfully"
	msgPaymentAlreadyVerified = "Payment already verified"
	msgVerificationFailed     = "Payment verification failed"
	msgPaymentReused          = "Payment does not belong to this booking"
	msgBookingNotPending      = "Booking is no longer awaiting payment"
	msgCapacityExhausted      = "No pods available for this date. The payment will be refunded."
	msgLatePayment            = "This booking was closed before the payment completed. The payment will be refunded."
	msgBookingNotFound        = "Booking not found"
)

// PaymentService issues provider orders and verifies checkout receipts
type PaymentService struct {
	bookings     BookingStore
	gateway      PaymentGateway
	availability *AvailabilityService
	audit        *AuditService
	config       *config.PaymentConfig
	logger       *logrus.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	bookings BookingStore,
	gateway PaymentGateway,
	availability *AvailabilityService,
	audit *AuditService,
	cfg *config.PaymentConfig,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		bookings:     bookings,
		gateway:      gateway,
		availability: availability,
		audit:        audit,
		config:       cfg,
		logger:       logger,
	}
}

// CreateOrder issues a provider order for a pending booking and links it to the booking.
// Amount is in whole currency units and must equal the booking price.
func (s *PaymentService) CreateOrder(ctx context.Context, req *models.CreateOrderRequest, client models.ClientInfo) (*models.CreateOrderResponse, error) {
	bookingID, err := validator.ParseBookingID(req.BookingID)
	if err != nil {
		metrics.IncOrder("rejected")
		return nil, models.NewValidationError(err.Error())
	}

	amount, err := validator.ParseAmount(req.Amount, s.config.MaxAmount)
	if err != nil {
		metrics.IncOrder("rejected")
		return nil, models.NewValidationError(err.Error())
	}

	if !s.gateway.IsConfigured() {
		metrics.IncOrder("rejected")
		s.logger.Error("Payment gateway credentials are not configured")
		return nil, models.NewConfigurationError("payment gateway is not configured")
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, storageError("failed to load booking", err)
	}
	if booking.Status != models.BookingStatusPending {
		metrics.IncOrder("rejected")
		return nil, models.ErrBookingNotPending
	}
	if amount != booking.Price {
		metrics.IncOrder("rejected")
		return nil, models.NewValidationError("amount does not match the booking price")
	}

	amountMinor := amount * 100
	order, err := s.gateway.CreateOrder(ctx, &CreateOrderParams{
		AmountMinor: amountMinor,
		Currency:    s.config.Currency,
		Receipt:     bookingID.String(),
	})
	if err != nil {
		metrics.IncOrder("upstream_error")
		s.logger.WithError(err).WithField("booking_id", bookingID).Error("Payment provider rejected order creation")
		s.audit.Record(ctx, models.NewPaymentAudit(models.PaymentEventOrderFailed, models.PaymentSourceRazorpay).
			SetBooking(bookingID).
			SetAmount(amountMinor, s.config.Currency).
			SetError(err).
			SetClient(client))
		return nil, models.NewUpstreamError("payment provider request failed", err)
	}

	if err := s.bookings.AttachOrder(ctx, bookingID, order.ID); err != nil {
		metrics.IncOrder("unlinked")
		s.logger.WithError(err).WithFields(logrus.Fields{
			"booking_id": bookingID,
			"order_id":   order.ID,
		}).Error("CRITICAL: provider order created but not linked to booking")
		s.audit.Record(ctx, models.NewPaymentAudit(models.PaymentEventOrderUnlinked, models.PaymentSourceBackend).
			SetBooking(bookingID).
			SetOrder(order.ID).
			SetAmount(order.Amount, order.Currency).
			SetError(err).
			SetClient(client))
		return nil, models.NewStorageError("order created but could not be linked to the booking", err)
	}

	metrics.IncOrder("issued")
	s.audit.Record(ctx, models.NewPaymentAudit(models.PaymentEventOrderCreated, models.PaymentSourceBackend).
		SetBooking(bookingID).
		SetOrder(order.ID).
		SetAmount(order.Amount, order.Currency).
		SetClient(client))

	currency := order.Currency
	if currency == "" {
		currency = s.config.Currency
	}

	return &models.CreateOrderResponse{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: currency,
		KeyID:    s.gateway.PublicKeyID(),
	}, nil
}

// VerifyPayment checks a checkout receipt and confirms the booking it belongs to.
// Rejections are reported in the result; only infrastructure failures are returned as errors.
func (s *PaymentService) VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest, client models.ClientInfo) (*models.VerificationResult, error) {
	bookingID, err := validateReceipt(req)
	if err != nil {
		metrics.IncVerification("invalid")
		return failedResult(models.ErrorKindValidation, err.Error()), nil
	}

	if !s.gateway.IsConfigured() {
		metrics.IncVerification("error")
		s.logger.Error("Payment gateway credentials are not configured")
		return nil, models.NewConfigurationError("payment gateway is not configured")
	}

	fields := logrus.Fields{
		"booking_id": bookingID,
		"order_id":   req.RazorpayOrderID,
		"payment_id": req.RazorpayPaymentID,
	}

	audit := func(eventType models.PaymentEventType, source models.PaymentEventSource) *models.PaymentAudit {
		return models.NewPaymentAudit(eventType, source).
			SetBooking(bookingID).
			SetOrder(req.RazorpayOrderID).
			SetPayment(req.RazorpayPaymentID).
			SetClient(client)
	}

	if !s.gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		metrics.IncVerification("mismatch")
		s.logger.WithFields(fields).Warn("Payment signature mismatch")
		s.audit.Record(ctx, audit(models.PaymentEventVerificationFailed, models.PaymentSourceCustomer).
			SetError(errors.New("signature mismatch")))
		return failedResult(models.ErrorKindVerification, msgVerificationFailed), nil
	}

	// A genuine receipt for one booking must not confirm another
	existing, err := s.bookings.FindByPaymentID(ctx, req.RazorpayPaymentID)
	switch {
	case err == nil && existing.ID != bookingID:
		metrics.IncVerification("replay")
		s.logger.WithFields(fields).WithField("linked_booking_id", existing.ID).Warn("Payment id replayed against another booking")
		s.audit.Record(ctx, audit(models.PaymentEventReplayRejected, models.PaymentSourceCustomer).
			SetError(errors.New("payment id already linked to booking "+existing.ID.String())))
		return failedResult(models.ErrorKindConflict, msgPaymentReused), nil
	case err != nil && !models.IsKind(err, models.ErrorKindNotFound):
		metrics.IncVerification("error")
		return nil, storageError("failed to check payment id", err)
	}

	booking, outcome, err := s.bookings.ConfirmPayment(ctx, bookingID, req.RazorpayOrderID, req.RazorpayPaymentID)
	if err != nil {
		return s.confirmationFailure(ctx, err, fields, audit)
	}

	if outcome == models.ConfirmOutcomeAlreadyConfirmed {
		metrics.IncVerification("duplicate")
		s.logger.WithFields(fields).Info("Duplicate verification of a confirmed booking")
		s.audit.Record(ctx, audit(models.PaymentEventDuplicateReceipt, models.PaymentSourceCustomer))
		return &models.VerificationResult{Success: true, Message: msgPaymentAlreadyVerified}, nil
	}

	metrics.IncVerification("confirmed")
	metrics.IncTransition(string(models.BookingStatusConfirmed), string(models.VerificationCryptographic))
	s.audit.Record(ctx, audit(models.PaymentEventVerificationSucceeded, models.PaymentSourceRazorpay).
		SetAmount(booking.Price*100, s.config.Currency))
	s.availability.InvalidateDate(ctx, booking.BookingDate)

	s.logger.WithFields(fields).Info("Payment verified and booking confirmed")

	return &models.VerificationResult{Success: true, Message: msgPaymentVerified}, nil
}

func (s *PaymentService) confirmationFailure(
	ctx context.Context,
	err error,
	fields logrus.Fields,
	audit func(models.PaymentEventType, models.PaymentEventSource) *models.PaymentAudit,
) (*models.VerificationResult, error) {
	switch {
	case errors.Is(err, models.ErrCapacityExhausted):
		metrics.IncVerification("conflict")
		metrics.IncTransition(string(models.BookingStatusFailed), models.FailureReasonCapacityExhausted)
		s.logger.WithFields(fields).Error("Paid booking rejected for capacity: refund required")
		s.audit.Record(ctx, audit(models.PaymentEventCapacityConflict, models.PaymentSourceBackend).SetError(err))
		return failedResult(models.ErrorKindConflict, msgCapacityExhausted), nil

	case errors.Is(err, models.ErrLatePayment):
		metrics.IncVerification("late")
		s.logger.WithFields(fields).Error("Payment captured for a closed booking: refund required")
		s.audit.Record(ctx, audit(models.PaymentEventLatePayment, models.PaymentSourceBackend).SetError(err))
		return failedResult(models.ErrorKindConflict, msgLatePayment), nil

	case errors.Is(err, models.ErrOrderMismatch):
		metrics.IncVerification("replay")
		s.logger.WithFields(fields).Warn("Receipt order does not match the booking")
		s.audit.Record(ctx, audit(models.PaymentEventReplayRejected, models.PaymentSourceCustomer).SetError(err))
		return failedResult(models.ErrorKindConflict, msgPaymentReused), nil

	case errors.Is(err, models.ErrBookingNotPending):
		metrics.IncVerification("conflict")
		s.logger.WithFields(fields).Warn("Receipt presented for a booking that is no longer pending")
		s.audit.Record(ctx, audit(models.PaymentEventDuplicateReceipt, models.PaymentSourceCustomer).SetError(err))
		return failedResult(models.ErrorKindConflict, msgBookingNotPending), nil

	case models.IsKind(err, models.ErrorKindNotFound):
		metrics.IncVerification("invalid")
		return failedResult(models.ErrorKindNotFound, msgBookingNotFound), nil
	}

	metrics.IncVerification("error")
	s.logger.WithError(err).WithFields(fields).Error("Failed to confirm booking")
	return nil, storageError("failed to confirm booking", err)
}

// validateReceipt checks identifier formats before any cryptography runs
func validateReceipt(req *models.VerifyPaymentRequest) (uuid.UUID, error) {
	if err := validator.ValidateOrderID(req.RazorpayOrderID); err != nil {
		return uuid.Nil, err
	}
	if err := validator.ValidatePaymentID(req.RazorpayPaymentID); err != nil {
		return uuid.Nil, err
	}
	if err := validator.ValidateSignature(req.RazorpaySignature); err != nil {
		return uuid.Nil, err
	}
	return validator.ParseBookingID(req.BookingID)
}

func failedResult(kind models.ErrorKind, message string) *models.VerificationResult {
	return &models.VerificationResult{
		Success: false,
		Error:   message,
		Kind:    kind,
	}
}
