package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/napcube/pod-reservation-backend/internal/config"
	"github.com/napcube/pod-reservation-backend/internal/database"
	"github.com/napcube/pod-reservation-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// Runs the pending booking reaper once, outside the server's cron schedule.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	db, err := database.NewConnection(cfg.Database, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	locationRepository := database.NewLocationRepository(db.DB)
	bookingRepository := database.NewBookingRepository(db.DB, logger)
	auditService := services.NewAuditService(database.NewPaymentAuditRepository(db.DB, logger), logger)

	// No cache here: a running server's cached listings expire on their own TTL
	availabilityService := services.NewAvailabilityService(locationRepository, bookingRepository, nil, logger)
	bookingService := services.NewBookingService(bookingRepository, locationRepository, availabilityService, auditService, cfg.Booking, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	expired, err := bookingService.ReapStale(ctx)
	if err != nil {
		log.Fatalf("Reaper failed after expiring %d bookings: %v", expired, err)
	}

	fmt.Printf("Expired %d pending bookings older than %s\n", expired, cfg.Booking.PendingTTL)
}
