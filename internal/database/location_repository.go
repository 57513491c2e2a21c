package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/napcube/pod-reservation-backend/internal/models"
)

// LocationRepository handles location database operations
type LocationRepository struct {
	db *sqlx.DB
}

// NewLocationRepository creates a new LocationRepository
func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// List returns every location ordered by name
func (r *LocationRepository) List(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	query := `
		SELECT id, name, address, total_pods, image_url, created_at
		FROM locations
		ORDER BY name ASC`

	if err := r.db.SelectContext(ctx, &locations, query); err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}

	return locations, nil
}

// GetByID retrieves a location, returning models.ErrLocationNotFound when absent
func (r *LocationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	query := `
		SELECT id, name, address, total_pods, image_url, created_at
		FROM locations
		WHERE id = $1`

	err := r.db.GetContext(ctx, &location, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrLocationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}

	return &location, nil
}

// UpdateCapacity sets the pod count of a location.
// Existing confirmed bookings are kept even if they now exceed the new capacity.
func (r *LocationRepository) UpdateCapacity(ctx context.Context, id uuid.UUID, totalPods int) (*models.Location, error) {
	var location models.Location
	query := `
		UPDATE locations
		SET total_pods = $2
		WHERE id = $1
		RETURNING id, name, address, total_pods, image_url, created_at`

	err := r.db.GetContext(ctx, &location, query, id, totalPods)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrLocationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update location capacity: %w", err)
	}

	return &location, nil
}
