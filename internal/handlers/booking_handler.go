package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/napcube/pod-reservation-backend/internal/models"
	"github.com/napcube/pod-reservation-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

// BookingManager creates, reads and cancels bookings
type BookingManager interface {
	Create(ctx context.Context, req *models.CreateBookingRequest) (*models.Booking, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID, client models.ClientInfo) (*models.Booking, error)
}

// CheckoutFlow drives payment for an existing booking
type CheckoutFlow interface {
	StartCheckout(ctx context.Context, bookingID uuid.UUID, req *models.CheckoutRequest, client models.ClientInfo) (*models.CheckoutResponse, error)
	CompleteHosted(ctx context.Context, bookingID uuid.UUID, req *models.HostedCompleteRequest, client models.ClientInfo) (*models.VerificationResult, error)
	SelfReport(ctx context.Context, bookingID uuid.UUID, req *models.SelfReportRequest, client models.ClientInfo) (*models.Booking, error)
}

// BookingHandler handles booking lifecycle requests
type BookingHandler struct {
	bookings BookingManager
	checkout CheckoutFlow
	logger   *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookings BookingManager, checkout CheckoutFlow, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		checkout: checkout,
		logger:   logger,
	}
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	booking, err := h.bookings.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookings.Get(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookings.Cancel(c.Request.Context(), bookingID, utils.ClientInfo(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// StartCheckout handles POST /api/v1/bookings/:id/checkout
// The body is optional; without a method the default hosted checkout is used.
func (h *BookingHandler) StartCheckout(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err)
		return
	}

	resp, err := h.checkout.StartCheckout(c.Request.Context(), bookingID, &req, utils.ClientInfo(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CompleteHosted handles POST /api/v1/bookings/:id/hosted-complete
func (h *BookingHandler) CompleteHosted(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.HostedCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.checkout.CompleteHosted(c.Request.Context(), bookingID, &req, utils.ClientInfo(c))
	if err != nil {
		respondVerificationError(c, h.logger, err)
		return
	}

	respondVerification(c, result)
}

// SelfReport handles POST /api/v1/bookings/:id/self-report
func (h *BookingHandler) SelfReport(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.SelfReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	booking, err := h.checkout.SelfReport(c.Request.Context(), bookingID, &req, utils.ClientInfo(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}
