package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/napcube/pod-reservation-backend/internal/middleware"
	"github.com/napcube/pod-reservation-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// CapacityManager changes the pod count of a location
type CapacityManager interface {
	UpdateCapacity(ctx context.Context, locationID uuid.UUID, totalPods int) (*models.Location, error)
}

// Reaper expires stale pending bookings on demand and reports its schedule
type Reaper interface {
	RunReaperNow(ctx context.Context) (int, error)
	GetJobStatus() map[string]interface{}
}

// AuditReader reads a booking's payment audit trail
type AuditReader interface {
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*models.PaymentAudit, error)
}

// AdminHandler handles operator requests
type AdminHandler struct {
	capacity CapacityManager
	reaper   Reaper
	audits   AuditReader
	logger   *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	capacity CapacityManager,
	reaper Reaper,
	audits AuditReader,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		capacity: capacity,
		reaper:   reaper,
		audits:   audits,
		logger:   logger,
	}
}

// UpdateCapacity handles PUT /api/v1/admin/locations/:id/capacity
func (h *AdminHandler) UpdateCapacity(c *gin.Context) {
	locationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	location, err := h.capacity.UpdateCapacity(c.Request.Context(), locationID, req.TotalPods)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"location_id": locationID,
		"total_pods":  req.TotalPods,
		"operator":    operatorName(c),
	}).Info("Location capacity changed by operator")

	c.JSON(http.StatusOK, location)
}

// ReapPendingBookings handles POST /api/v1/admin/bookings/reap
func (h *AdminHandler) ReapPendingBookings(c *gin.Context) {
	expired, err := h.reaper.RunReaperNow(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"expired":  expired,
		"operator": operatorName(c),
	}).Info("Manual reaper run")

	c.JSON(http.StatusOK, gin.H{"expired": expired})
}

// GetJobStatus handles GET /api/v1/admin/jobs
func (h *AdminHandler) GetJobStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.reaper.GetJobStatus())
}

// GetBookingAudit handles GET /api/v1/admin/bookings/:id/audit
func (h *AdminHandler) GetBookingAudit(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	audits, err := h.audits.ListByBooking(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if audits == nil {
		audits = []*models.PaymentAudit{}
	}

	c.JSON(http.StatusOK, gin.H{
		"booking_id": bookingID,
		"events":     audits,
	})
}

func operatorName(c *gin.Context) string {
	if operatorCtx, ok := middleware.GetOperatorContext(c); ok {
		return operatorCtx.Operator
	}
	return ""
}
