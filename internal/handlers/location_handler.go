package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/napcube/pod-reservation-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// AvailabilityReader is the read side of the availability service
type AvailabilityReader interface {
	ListLocations(ctx context.Context) ([]models.Location, error)
	AvailabilityForDate(ctx context.Context, date string) ([]models.LocationAvailability, error)
	AvailabilityForLocation(ctx context.Context, locationID uuid.UUID, date string) (*models.LocationAvailability, error)
}

// LocationHandler handles location and availability requests
type LocationHandler struct {
	availability AvailabilityReader
	logger       *logrus.Logger
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(availability AvailabilityReader, logger *logrus.Logger) *LocationHandler {
	return &LocationHandler{
		availability: availability,
		logger:       logger,
	}
}

// ListLocations handles GET /api/v1/locations
func (h *LocationHandler) ListLocations(c *gin.Context) {
	locations, err := h.availability.ListLocations(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if locations == nil {
		locations = []models.Location{}
	}

	c.JSON(http.StatusOK, gin.H{
		"locations": locations,
		"count":     len(locations),
	})
}

// GetAvailability handles GET /api/v1/availability?date=YYYY-MM-DD
func (h *LocationHandler) GetAvailability(c *gin.Context) {
	date := c.Query("date")

	list, err := h.availability.AvailabilityForDate(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if list == nil {
		list = []models.LocationAvailability{}
	}

	c.JSON(http.StatusOK, gin.H{
		"date":         date,
		"availability": list,
	})
}

// GetLocationAvailability handles GET /api/v1/locations/:id/availability?date=YYYY-MM-DD
// An empty date answers with a null availability.
func (h *LocationHandler) GetLocationAvailability(c *gin.Context) {
	locationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	date := c.Query("date")

	availability, err := h.availability.AvailabilityForLocation(c.Request.Context(), locationID, date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":         date,
		"availability": availability,
	})
}
