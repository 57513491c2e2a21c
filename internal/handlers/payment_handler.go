package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/napcube/pod-reservation-backend/internal/models"
	"github.com/napcube/pod-reservation-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

// PaymentProcessor issues provider orders and verifies their receipts
type PaymentProcessor interface {
	CreateOrder(ctx context.Context, req *models.CreateOrderRequest, client models.ClientInfo) (*models.CreateOrderResponse, error)
	VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest, client models.ClientInfo) (*models.VerificationResult, error)
}

// PaymentHandler handles the provider order and verification endpoints
type PaymentHandler struct {
	payments PaymentProcessor
	logger   *logrus.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments PaymentProcessor, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		logger:   logger,
	}
}

// CreateOrder godoc
// @Summary Create a payment order
// @Description Issues a provider order for a pending booking. Amount is in whole currency units.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body models.CreateOrderRequest true "Booking id and amount"
// @Success 200 {object} models.CreateOrderResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /payments/create-order [post]
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	order, err := h.payments.CreateOrder(c.Request.Context(), &req, utils.ClientInfo(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// VerifyPayment godoc
// @Summary Verify a payment receipt
// @Description Checks the provider signature and confirms the booking when it is valid
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body models.VerifyPaymentRequest true "Provider receipt"
// @Success 200 {object} models.VerificationResult
// @Failure 400 {object} models.VerificationResult
// @Failure 409 {object} models.VerificationResult
// @Failure 500 {object} models.VerificationResult
// @Router /payments/verify [post]
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.VerificationResult{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	result, err := h.payments.VerifyPayment(c.Request.Context(), &req, utils.ClientInfo(c))
	if err != nil {
		respondVerificationError(c, h.logger, err)
		return
	}

	respondVerification(c, result)
}
