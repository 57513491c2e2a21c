package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/napcube/pod-reservation-backend/internal/models"
	"github.com/napcube/pod-reservation-backend/pkg/validator"
	"github.com/sirupsen/logrus"
)

// AvailabilityService computes pod availability from confirmed bookings
type AvailabilityService struct {
	locations LocationStore
	bookings  BookingStore
	cache     AvailabilityCache // nil disables caching
	logger    *logrus.Logger
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(locations LocationStore, bookings BookingStore, cache AvailabilityCache, logger *logrus.Logger) *AvailabilityService {
	return &AvailabilityService{
		locations: locations,
		bookings:  bookings,
		cache:     cache,
		logger:    logger,
	}
}

// ListLocations returns every location ordered by name
func (s *AvailabilityService) ListLocations(ctx context.Context) ([]models.Location, error) {
	locations, err := s.locations.List(ctx)
	if err != nil {
		return nil, storageError("failed to list locations", err)
	}
	return locations, nil
}

// AvailabilityForDate returns availability of every location on date.
// An empty date yields an empty list.
func (s *AvailabilityService) AvailabilityForDate(ctx context.Context, date string) ([]models.LocationAvailability, error) {
	if date == "" {
		return []models.LocationAvailability{}, nil
	}
	if _, err := validator.ParseDate(date); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if s.cache != nil {
		list, ok, err := s.cache.Get(ctx, date)
		if err != nil {
			s.logger.WithError(err).WithField("date", date).Warn("Availability cache read failed")
		} else if ok {
			return list, nil
		}
	}

	locations, err := s.locations.List(ctx)
	if err != nil {
		return nil, storageError("failed to load locations", err)
	}

	counts, err := s.bookings.CountConfirmedByLocation(ctx, date)
	if err != nil {
		return nil, storageError("failed to count confirmed bookings", err)
	}

	result := make([]models.LocationAvailability, 0, len(locations))
	for i := range locations {
		result = append(result, models.NewLocationAvailability(&locations[i], counts[locations[i].ID]))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, date, result); err != nil {
			s.logger.WithError(err).WithField("date", date).Warn("Availability cache write failed")
		}
	}

	return result, nil
}

// AvailabilityForLocation returns live availability for one location.
// It never reads the cache. An empty date yields (nil, nil).
func (s *AvailabilityService) AvailabilityForLocation(ctx context.Context, locationID uuid.UUID, date string) (*models.LocationAvailability, error) {
	if date == "" {
		return nil, nil
	}
	if _, err := validator.ParseDate(date); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	location, err := s.locations.GetByID(ctx, locationID)
	if err != nil {
		return nil, storageError("failed to load location", err)
	}

	confirmed, err := s.bookings.CountConfirmed(ctx, locationID, date)
	if err != nil {
		return nil, storageError("failed to count confirmed bookings", err)
	}

	availability := models.NewLocationAvailability(location, confirmed)
	return &availability, nil
}

// UpdateCapacity changes a location's pod count and drops every cached listing
func (s *AvailabilityService) UpdateCapacity(ctx context.Context, locationID uuid.UUID, totalPods int) (*models.Location, error) {
	if totalPods <= 0 {
		return nil, models.NewValidationError("total_pods must be greater than zero")
	}

	location, err := s.locations.UpdateCapacity(ctx, locationID, totalPods)
	if err != nil {
		return nil, storageError("failed to update capacity", err)
	}

	s.logger.WithFields(logrus.Fields{
		"location_id": locationID,
		"total_pods":  totalPods,
	}).Info("Location capacity updated")

	s.InvalidateAll(ctx)
	return location, nil
}

// InvalidateDate drops the cached listing for one date
func (s *AvailabilityService) InvalidateDate(ctx context.Context, date string) {
	if s.cache == nil || date == "" {
		return
	}
	if err := s.cache.Invalidate(ctx, date); err != nil {
		s.logger.WithError(err).WithField("date", date).Warn("Failed to invalidate availability cache")
	}
}

// InvalidateAll drops every cached listing
func (s *AvailabilityService) InvalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate availability cache")
	}
}
