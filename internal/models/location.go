package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is a site with a fixed pool of rest pods
type Location struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	TotalPods int       `db:"total_pods" json:"total_pods"`
	ImageURL  *string   `db:"image_url" json:"image_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// UpdateCapacityRequest is the admin payload for changing a location's pod count
type UpdateCapacityRequest struct {
	TotalPods int `json:"total_pods" binding:"required,gt=0"`
}

// LocationAvailability is the availability of one location on one date
type LocationAvailability struct {
	LocationID    uuid.UUID `json:"locationId"`
	LocationName  string    `json:"locationName"`
	TotalPods     int       `json:"totalPods"`
	BookedPods    int       `json:"bookedPods"`
	AvailablePods int       `json:"availablePods"`
	IsAvailable   bool      `json:"isAvailable"`
}

// AvailablePods applies max(0, total - confirmed)
func AvailablePods(totalPods, confirmed int) int {
	available := totalPods - confirmed
	if available < 0 {
		return 0
	}
	return available
}

// NewLocationAvailability derives availability for a location from its confirmed count
func NewLocationAvailability(loc *Location, confirmed int) LocationAvailability {
	available := AvailablePods(loc.TotalPods, confirmed)
	return LocationAvailability{
		LocationID:    loc.ID,
		LocationName:  loc.Name,
		TotalPods:     loc.TotalPods,
		BookedPods:    confirmed,
		AvailablePods: available,
		IsAvailable:   available > 0,
	}
}
