package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/napcube/pod-reservation-backend/internal/models"
)

// LocationStore is the location persistence used by the services (database.LocationRepository)
type LocationStore interface {
	List(ctx context.Context) ([]models.Location, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	UpdateCapacity(ctx context.Context, id uuid.UUID, totalPods int) (*models.Location, error)
}

// BookingStore is the booking persistence used by the services (database.BookingRepository)
type BookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*models.Booking, error)
	CountConfirmed(ctx context.Context, locationID uuid.UUID, date string) (int, error)
	CountConfirmedByLocation(ctx context.Context, date string) (map[uuid.UUID]int, error)
	AttachOrder(ctx context.Context, id uuid.UUID, orderID string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, update models.StatusUpdate) (*models.Booking, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) (*models.Booking, error)
	ConfirmPayment(ctx context.Context, bookingID uuid.UUID, orderID, paymentID string) (*models.Booking, models.ConfirmOutcome, error)
	ConfirmSelfReported(ctx context.Context, bookingID uuid.UUID) (*models.Booking, models.ConfirmOutcome, error)
	ExpireStalePending(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

// AuditStore is the payment audit persistence (database.PaymentAuditRepository)
type AuditStore interface {
	Log(ctx context.Context, audit *models.PaymentAudit) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*models.PaymentAudit, error)
}

// storageError converts an untyped repository error into a StorageError, keeping typed ones
func storageError(message string, err error) error {
	if err == nil {
		return nil
	}
	if models.ErrorKindOf(err) != models.ErrorKindInternal {
		return err
	}
	return models.NewStorageError(message, err)
}
