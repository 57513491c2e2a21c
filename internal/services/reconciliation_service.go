package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/napcube/pod-reservation-backend/internal/config"
	"github.com/napcube/pod-reservation-backend/internal/metrics"
	"github.com/napcube/pod-reservation-backend/internal/models"
	"github.com/napcube/pod-reservation-backend/pkg/upi"
	"github.com/sirupsen/logrus"
)

var supportedMethods = map[models.PaymentMethod]bool{
	"":                           true,
	models.PaymentMethodCard:     true,
	models.PaymentMethodQR:       true,
	models.PaymentMethodGPay:     true,
	models.PaymentMethodPhonePe:  true,
	models.PaymentMethodPaytm:    true,
	models.PaymentMethodOtherUPI: true,
	models.PaymentMethodUPILink:  true,
}

// ReconciliationService drives a booking from pending to a terminal state
// through either the hosted checkout or the manual UPI flow.
//
// Hosted flow:  availability gate -> order -> widget -> signature verification
// Manual flow:  availability gate -> upi:// deep link -> customer self-report
type ReconciliationService struct {
	bookings     BookingStore
	availability *AvailabilityService
	payments     *PaymentService
	audit        *AuditService
	config       *config.PaymentConfig
	logger       *logrus.Logger
}

// NewReconciliationService creates a new reconciliation flow controller
func NewReconciliationService(
	bookings BookingStore,
	availability *AvailabilityService,
	payments *PaymentService,
	audit *AuditService,
	cfg *config.PaymentConfig,
	logger *logrus.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		bookings:     bookings,
		availability: availability,
		payments:     payments,
		audit:        audit,
		config:       cfg,
		logger:       logger,
	}
}

// StartCheckout gates on live availability and then prepares the chosen payment flow.
// No order is issued when the location is full.
func (s *ReconciliationService) StartCheckout(ctx context.Context, bookingID uuid.UUID, req *models.CheckoutRequest, client models.ClientInfo) (*models.CheckoutResponse, error) {
	method := models.PaymentMethod("")
	if req != nil {
		method = req.Method
	}
	if !supportedMethods[method] {
		return nil, models.NewValidationError("unsupported payment method: " + string(method))
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, storageError("failed to load booking", err)
	}
	if booking.Status != models.BookingStatusPending {
		return nil, models.ErrBookingNotPending
	}

	availability, err := s.availability.AvailabilityForLocation(ctx, booking.LocationID, booking.BookingDate)
	if err != nil {
		return nil, err
	}
	if availability == nil || !availability.IsAvailable {
		s.logger.WithFields(logrus.Fields{
			"booking_id":  bookingID,
			"location_id": booking.LocationID,
			"date":        booking.BookingDate,
		}).Info("Checkout blocked: no pods available")
		return nil, models.NewConflictError("no pods available for this date")
	}

	if method.IsManual() {
		return s.startManual(booking, availability)
	}
	return s.startHosted(ctx, booking, availability, method, client)
}

func (s *ReconciliationService) startHosted(
	ctx context.Context,
	booking *models.Booking,
	availability *models.LocationAvailability,
	method models.PaymentMethod,
	client models.ClientInfo,
) (*models.CheckoutResponse, error) {
	order, err := s.payments.CreateOrder(ctx, &models.CreateOrderRequest{
		BookingID: booking.ID.String(),
		Amount:    json.Number(strconv.FormatInt(booking.Price, 10)),
	}, client)
	if err != nil {
		return nil, err
	}

	customer := CheckoutCustomer{
		Name:  booking.CustomerName,
		Email: booking.CustomerEmail,
	}
	if booking.CustomerPhone != nil {
		customer.Phone = *booking.CustomerPhone
	}

	return &models.CheckoutResponse{
		BookingID:    booking.ID.String(),
		Mode:         models.VerificationCryptographic,
		Order:        order,
		CheckoutOpts: BuildCheckoutOptions(order, s.config.MerchantName, customer, method),
		Availability: *availability,
	}, nil
}

func (s *ReconciliationService) startManual(booking *models.Booking, availability *models.LocationAvailability) (*models.CheckoutResponse, error) {
	link, err := upi.Link(upi.Payment{
		PayeeID:   s.config.UPIPayeeID,
		PayeeName: s.config.UPIPayeeName,
		Amount:    booking.Price,
		Currency:  s.config.Currency,
		Note: upi.TransactionNote(s.config.MerchantName, booking.ID.String(),
			availability.LocationName, booking.BookingTime),
	})
	if err != nil {
		s.logger.WithError(err).Error("Manual UPI payee is not configured")
		return nil, models.NewConfigurationError("manual UPI payments are not configured")
	}

	return &models.CheckoutResponse{
		BookingID:    booking.ID.String(),
		Mode:         models.VerificationSelfReported,
		UPILink:      link,
		Availability: *availability,
	}, nil
}

// CompleteHosted verifies the widget success callback for a booking
func (s *ReconciliationService) CompleteHosted(ctx context.Context, bookingID uuid.UUID, req *models.HostedCompleteRequest, client models.ClientInfo) (*models.VerificationResult, error) {
	return s.payments.VerifyPayment(ctx, &models.VerifyPaymentRequest{
		RazorpayOrderID:   req.RazorpayOrderID,
		RazorpayPaymentID: req.RazorpayPaymentID,
		RazorpaySignature: req.RazorpaySignature,
		BookingID:         bookingID.String(),
	}, client)
}

// SelfReport applies the customer's claim about a manual UPI payment.
// "paid" confirms without a provider receipt (payment_status stays unpaid)
// after the same capacity re-check as a verified payment. "failed" fails the booking.
func (s *ReconciliationService) SelfReport(ctx context.Context, bookingID uuid.UUID, req *models.SelfReportRequest, client models.ClientInfo) (*models.Booking, error) {
	if req == nil {
		return nil, models.NewValidationError("outcome is required")
	}

	switch req.Outcome {
	case models.SelfReportPaid:
		return s.selfReportPaid(ctx, bookingID, client)
	case models.SelfReportFailed:
		booking, err := s.bookings.MarkFailed(ctx, bookingID, models.FailureReasonPaymentAbandoned)
		if err != nil {
			return nil, storageError("failed to update booking", err)
		}
		metrics.IncTransition(string(models.BookingStatusFailed), models.FailureReasonPaymentAbandoned)
		s.audit.Record(ctx, models.NewPaymentAudit(models.PaymentEventSelfReportedFailed, models.PaymentSourceCustomer).
			SetBooking(bookingID).
			SetClient(client))
		return booking, nil
	default:
		return nil, models.NewValidationError("outcome must be 'paid' or 'failed'")
	}
}

func (s *ReconciliationService) selfReportPaid(ctx context.Context, bookingID uuid.UUID, client models.ClientInfo) (*models.Booking, error) {
	booking, outcome, err := s.bookings.ConfirmSelfReported(ctx, bookingID)
	if errors.Is(err, models.ErrCapacityExhausted) {
		metrics.IncTransition(string(models.BookingStatusFailed), models.FailureReasonCapacityExhausted)
		s.logger.WithField("booking_id", bookingID).Error("Self-reported payment rejected for capacity: refund required")
		audit := models.NewPaymentAudit(models.PaymentEventCapacityConflict, models.PaymentSourceCustomer).
			SetBooking(bookingID).
			SetError(err).
			SetClient(client)
		if booking != nil {
			audit.SetAmount(booking.Price*100, s.config.Currency)
		}
		s.audit.Record(ctx, audit)
		return nil, err
	}
	if err != nil {
		return nil, storageError("failed to confirm booking", err)
	}

	if outcome == models.ConfirmOutcomeAlreadyConfirmed {
		return booking, nil
	}

	metrics.IncTransition(string(models.BookingStatusConfirmed), string(models.VerificationSelfReported))
	s.audit.Record(ctx, models.NewPaymentAudit(models.PaymentEventSelfReportedPaid, models.PaymentSourceCustomer).
		SetBooking(bookingID).
		SetAmount(booking.Price*100, s.config.Currency).
		SetClient(client))
	s.availability.InvalidateDate(ctx, booking.BookingDate)

	s.logger.WithField("booking_id", bookingID).Warn("Booking confirmed on customer self-report: reconcile against UPI statement")
	return booking, nil
}
