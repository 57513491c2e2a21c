package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron       *cron.Cron
	bookingSvc *BookingService
	schedule   string
	jobTimeout time.Duration
	logger     *logrus.Logger
}

// NewCronService creates a new CronService.
// schedule uses robfig/cron syntax, e.g. "@every 5m" or "0 */5 * * * *".
func NewCronService(bookingSvc *BookingService, schedule string, logger *logrus.Logger) *CronService {
	// Seconds precision keeps six-field specs valid; descriptors like @every still work
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:       c,
		bookingSvc: bookingSvc,
		schedule:   schedule,
		jobTimeout: 2 * time.Minute,
		logger:     logger,
	}
}

// Start starts all cron jobs
func (s *CronService) Start() error {
	s.logger.Info("Starting cron service...")

	// Job 1: fail pending bookings that outlived the pending TTL
	_, err := s.cron.AddFunc(s.schedule, s.reapPendingBookingsJob)
	if err != nil {
		return fmt.Errorf("failed to schedule pending booking reaper: %w", err)
	}
	s.logger.WithField("schedule", s.schedule).Info("✓ Scheduled: Reap stale pending bookings")

	s.cron.Start()
	s.logger.Info("✓ Cron service started successfully")

	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("✓ Cron service stopped")
}

func (s *CronService) reapPendingBookingsJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	startTime := time.Now()
	expired, err := s.bookingSvc.ReapStale(ctx)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Failed to reap stale pending bookings")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"expired":  expired,
		"duration": time.Since(startTime).String(),
	}).Info("[CRON] Reaped stale pending bookings")
}

// RunReaperNow runs the reaper immediately (admin trigger)
func (s *CronService) RunReaperNow(ctx context.Context) (int, error) {
	s.logger.Info("[MANUAL] Running pending booking reaper now...")
	return s.bookingSvc.ReapStale(ctx)
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"schedule":  s.schedule,
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
