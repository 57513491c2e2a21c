package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/napcube/pod-reservation-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// bookingColumns keeps booking_date as a plain YYYY-MM-DD label so both drivers scan it into a string
const bookingColumns = `
	id, location_id, customer_name, customer_email, customer_phone,
	to_char(booking_date, 'YYYY-MM-DD') AS booking_date, booking_time, duration, price,
	status, payment_status, razorpay_order_id, razorpay_payment_id,
	verification_mode, failure_reason, created_at, updated_at`

// BookingRepository handles booking database operations
type BookingRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB, logger *logrus.Logger) *BookingRepository {
	return &BookingRepository{
		db:     db,
		logger: logger,
	}
}

// ============================================================================
// CRUD
// ============================================================================

// Create inserts a new booking. Bookings are always created pending and unpaid.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	now := time.Now()
	booking.ID = uuid.New()
	booking.Status = models.BookingStatusPending
	booking.PaymentStatus = models.PaymentStatusUnpaid
	booking.RazorpayOrderID = nil
	booking.RazorpayPaymentID = nil
	booking.VerificationMode = nil
	booking.FailureReason = nil
	booking.CreatedAt = now
	booking.UpdatedAt = now

	query := `
		INSERT INTO bookings (
			id, location_id, customer_name, customer_email, customer_phone,
			booking_date, booking_time, duration, price,
			status, payment_status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6::date, $7, $8, $9, $10, $11, $12, $13
		)`

	_, err := r.db.ExecContext(ctx, query,
		booking.ID, booking.LocationID, booking.CustomerName, booking.CustomerEmail, booking.CustomerPhone,
		booking.BookingDate, booking.BookingTime, booking.Duration, booking.Price,
		booking.Status, booking.PaymentStatus, booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

// GetByID retrieves a booking, returning models.ErrBookingNotFound when absent
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	err := r.db.GetContext(ctx, &booking, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &booking, nil
}

// FindByPaymentID returns the booking that already holds a provider payment id
func (r *BookingRepository) FindByPaymentID(ctx context.Context, paymentID string) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE razorpay_payment_id = $1`

	err := r.db.GetContext(ctx, &booking, query, paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking by payment id: %w", err)
	}

	return &booking, nil
}

// ============================================================================
// AVAILABILITY COUNTS
// ============================================================================

// CountConfirmed counts confirmed bookings for a location on a date
func (r *BookingRepository) CountConfirmed(ctx context.Context, locationID uuid.UUID, date string) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE location_id = $1
		AND booking_date = $2::date
		AND status = 'confirmed'`

	if err := r.db.GetContext(ctx, &count, query, locationID, date); err != nil {
		return 0, fmt.Errorf("failed to count confirmed bookings: %w", err)
	}

	return count, nil
}

// CountConfirmedByLocation counts confirmed bookings per location on a date.
// Locations without confirmed bookings are absent from the map.
func (r *BookingRepository) CountConfirmedByLocation(ctx context.Context, date string) (map[uuid.UUID]int, error) {
	var rows []struct {
		LocationID uuid.UUID `db:"location_id"`
		Confirmed  int       `db:"confirmed"`
	}
	query := `
		SELECT location_id, COUNT(*) AS confirmed
		FROM bookings
		WHERE booking_date = $1::date
		AND status = 'confirmed'
		GROUP BY location_id`

	if err := r.db.SelectContext(ctx, &rows, query, date); err != nil {
		return nil, fmt.Errorf("failed to count confirmed bookings by location: %w", err)
	}

	counts := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		counts[row.LocationID] = row.Confirmed
	}
	return counts, nil
}

// ============================================================================
// STATE TRANSITIONS
// ============================================================================

// AttachOrder stores the provider order id on a pending booking
func (r *BookingRepository) AttachOrder(ctx context.Context, id uuid.UUID, orderID string) error {
	query := `
		UPDATE bookings
		SET razorpay_order_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`

	result, err := r.db.ExecContext(ctx, query, id, orderID)
	if err != nil {
		return fmt.Errorf("failed to attach order: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to attach order: %w", err)
	}
	if rows == 0 {
		return models.ErrBookingNotPending
	}

	return nil
}

// UpdateStatus fails a pending booking together with its optional fields.
// Confirmation only happens through ConfirmPayment or ConfirmSelfReported, which re-check capacity.
// The WHERE status = 'pending' guard makes concurrent transitions compare-and-swap.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, update models.StatusUpdate) (*models.Booking, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	var booking models.Booking
	query := `
		UPDATE bookings
		SET status = $2,
			payment_status = COALESCE($3, payment_status),
			razorpay_payment_id = COALESCE($4, razorpay_payment_id),
			verification_mode = COALESCE($5, verification_mode),
			failure_reason = COALESCE($6, failure_reason),
			updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + bookingColumns

	err := r.db.GetContext(ctx, &booking, query,
		id, update.Status, update.PaymentStatus, update.RazorpayPaymentID,
		update.VerificationMode, update.FailureReason,
	)
	if errors.Is(err, sql.ErrNoRows) {
		// Either unknown or already terminal
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, models.ErrBookingNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	return &booking, nil
}

// MarkFailed moves a pending booking to failed with a reason
func (r *BookingRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (*models.Booking, error) {
	return r.UpdateStatus(ctx, id, models.StatusUpdate{
		Status:        models.BookingStatusFailed,
		FailureReason: &reason,
	})
}

// ConfirmPayment confirms a booking whose provider receipt has been verified.
// The stored order id must match and capacity is re-checked under lock.
func (r *BookingRepository) ConfirmPayment(ctx context.Context, bookingID uuid.UUID, orderID, paymentID string) (*models.Booking, models.ConfirmOutcome, error) {
	return r.confirm(ctx, models.ConfirmParams{
		BookingID: bookingID,
		OrderID:   orderID,
		PaymentID: paymentID,
		Mode:      models.VerificationCryptographic,
	})
}

// ConfirmSelfReported confirms a booking on the customer's own payment claim.
// payment_status stays unpaid since no provider receipt exists.
func (r *BookingRepository) ConfirmSelfReported(ctx context.Context, bookingID uuid.UUID) (*models.Booking, models.ConfirmOutcome, error) {
	return r.confirm(ctx, models.ConfirmParams{
		BookingID: bookingID,
		Mode:      models.VerificationSelfReported,
	})
}

// confirm runs the capacity-checked confirmation transaction.
// Lock order is location row, then booking row, for every caller.
func (r *BookingRepository) confirm(ctx context.Context, p models.ConfirmParams) (*models.Booking, models.ConfirmOutcome, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var locationID uuid.UUID
	err = tx.GetContext(ctx, &locationID, `SELECT location_id FROM bookings WHERE id = $1`, p.BookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, models.ErrBookingNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load booking location: %w", err)
	}

	var totalPods int
	err = tx.GetContext(ctx, &totalPods, `SELECT total_pods FROM locations WHERE id = $1 FOR UPDATE`, locationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, models.ErrLocationNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to lock location: %w", err)
	}

	var booking models.Booking
	err = tx.GetContext(ctx, &booking, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, p.BookingID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to lock booking: %w", err)
	}

	if booking.Status == models.BookingStatusConfirmed && sameConfirmation(&booking, p) {
		return &booking, models.ConfirmOutcomeAlreadyConfirmed, nil
	}
	if lateReceipt(&booking, p) {
		// Money was captured on an order the booking still owns, so keep the payment id for the refund
		lateQuery := `
			UPDATE bookings
			SET razorpay_payment_id = $2,
				verification_mode = $3,
				updated_at = NOW()
			WHERE id = $1 AND status = 'failed' AND razorpay_payment_id IS NULL
			RETURNING ` + bookingColumns
		if err := tx.GetContext(ctx, &booking, lateQuery, p.BookingID, p.PaymentID, p.Mode); err != nil {
			return nil, 0, fmt.Errorf("failed to record late payment: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, 0, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return &booking, 0, models.ErrLatePayment
	}
	if booking.Status != models.BookingStatusPending {
		return &booking, 0, models.ErrBookingNotPending
	}
	if p.Mode == models.VerificationCryptographic && !booking.HasOrder(p.OrderID) {
		return &booking, 0, models.ErrOrderMismatch
	}

	var confirmed int
	countQuery := `
		SELECT COUNT(*) FROM bookings
		WHERE location_id = $1
		AND booking_date = $2::date
		AND status = 'confirmed'`
	if err := tx.GetContext(ctx, &confirmed, countQuery, locationID, booking.BookingDate); err != nil {
		return nil, 0, fmt.Errorf("failed to count confirmed bookings: %w", err)
	}

	if confirmed >= totalPods {
		failQuery := `
			UPDATE bookings
			SET status = 'failed',
				failure_reason = $2,
				razorpay_payment_id = COALESCE($3, razorpay_payment_id),
				verification_mode = $4,
				updated_at = NOW()
			WHERE id = $1 AND status = 'pending'
			RETURNING ` + bookingColumns
		if err := tx.GetContext(ctx, &booking, failQuery,
			p.BookingID, models.FailureReasonCapacityExhausted, nullIfEmpty(p.PaymentID), p.Mode,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to reject booking: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, 0, fmt.Errorf("failed to commit transaction: %w", err)
		}

		r.logger.WithFields(logrus.Fields{
			"booking_id":  p.BookingID,
			"location_id": locationID,
			"date":        booking.BookingDate,
			"confirmed":   confirmed,
			"total_pods":  totalPods,
		}).Warn("Confirmation rejected: location is full")

		return &booking, models.ConfirmOutcomeCapacityExhausted, models.ErrCapacityExhausted
	}

	paymentStatus := models.PaymentStatusUnpaid
	if p.Mode == models.VerificationCryptographic {
		paymentStatus = models.PaymentStatusPaid
	}

	confirmQuery := `
		UPDATE bookings
		SET status = 'confirmed',
			payment_status = $2,
			razorpay_payment_id = COALESCE($3, razorpay_payment_id),
			verification_mode = $4,
			updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + bookingColumns
	if err := tx.GetContext(ctx, &booking, confirmQuery,
		p.BookingID, paymentStatus, nullIfEmpty(p.PaymentID), p.Mode,
	); err != nil {
		return nil, 0, fmt.Errorf("failed to confirm booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &booking, models.ConfirmOutcomeConfirmed, nil
}

// ExpireStalePending fails pending bookings created before cutoff and returns their ids
func (r *BookingRepository) ExpireStalePending(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `
		UPDATE bookings
		SET status = 'failed', failure_reason = $3, updated_at = NOW()
		WHERE id IN (
			SELECT id FROM bookings
			WHERE status = 'pending' AND created_at < $1
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		AND status = 'pending'
		RETURNING id`

	if err := r.db.SelectContext(ctx, &ids, query, cutoff, limit, models.FailureReasonExpired); err != nil {
		return nil, fmt.Errorf("failed to expire pending bookings: %w", err)
	}

	return ids, nil
}

// sameConfirmation reports whether a confirmed booking was confirmed by the same receipt or mode
func sameConfirmation(b *models.Booking, p models.ConfirmParams) bool {
	if b.VerificationMode == nil || *b.VerificationMode != p.Mode {
		return false
	}
	if p.Mode == models.VerificationSelfReported {
		return true
	}
	return b.HasOrder(p.OrderID) && b.RazorpayPaymentID != nil && *b.RazorpayPaymentID == p.PaymentID
}

// lateReceipt matches a verified receipt for a booking that failed before any payment was recorded
func lateReceipt(b *models.Booking, p models.ConfirmParams) bool {
	return p.Mode == models.VerificationCryptographic &&
		b.Status == models.BookingStatusFailed &&
		b.RazorpayPaymentID == nil &&
		b.HasOrder(p.OrderID)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
