package services

import (
	"context"
	"crypto/hmac"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/napcube/pod-reservation-backend/internal/config"
	"github.com/napcube/pod-reservation-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// ============================================================================
// LOCATIONS
// ============================================================================

type fakeLocationStore struct {
	mu        sync.Mutex
	locations map[uuid.UUID]*models.Location
	err       error
}

func newFakeLocationStore() *fakeLocationStore {
	return &fakeLocationStore{locations: make(map[uuid.UUID]*models.Location)}
}

func (f *fakeLocationStore) add(name string, totalPods int) *models.Location {
	f.mu.Lock()
	defer f.mu.Unlock()
	loc := &models.Location{ID: uuid.New(), Name: name, Address: name + " Terminal", TotalPods: totalPods, CreatedAt: time.Now()}
	f.locations[loc.ID] = loc
	return loc
}

func (f *fakeLocationStore) List(ctx context.Context) ([]models.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	list := make([]models.Location, 0, len(f.locations))
	for _, loc := range f.locations {
		list = append(list, *loc)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (f *fakeLocationStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	loc, ok := f.locations[id]
	if !ok {
		return nil, models.ErrLocationNotFound
	}
	copied := *loc
	return &copied, nil
}

func (f *fakeLocationStore) UpdateCapacity(ctx context.Context, id uuid.UUID, totalPods int) (*models.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	loc, ok := f.locations[id]
	if !ok {
		return nil, models.ErrLocationNotFound
	}
	loc.TotalPods = totalPods
	copied := *loc
	return &copied, nil
}

func (f *fakeLocationStore) totalPods(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if loc, ok := f.locations[id]; ok {
		return loc.TotalPods
	}
	return 0
}

// ============================================================================
// BOOKINGS
// ============================================================================

// fakeBookingStore mirrors the conditional-update semantics of database.BookingRepository
type fakeBookingStore struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]*models.Booking
	locations *fakeLocationStore
	createErr error
	attachErr error
	countErr  error
	creates   int
}

func newFakeBookingStore(locations *fakeLocationStore) *fakeBookingStore {
	return &fakeBookingStore{
		bookings:  make(map[uuid.UUID]*models.Booking),
		locations: locations,
	}
}

func cloneBooking(b *models.Booking) *models.Booking {
	copied := *b
	return &copied
}

func (f *fakeBookingStore) Create(ctx context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
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
	f.bookings[booking.ID] = cloneBooking(booking)
	f.creates++
	return nil
}

func (f *fakeBookingStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, models.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func (f *fakeBookingStore) FindByPaymentID(ctx context.Context, paymentID string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.RazorpayPaymentID != nil && *b.RazorpayPaymentID == paymentID {
			return cloneBooking(b), nil
		}
	}
	return nil, models.ErrBookingNotFound
}

func (f *fakeBookingStore) countLocked(locationID uuid.UUID, date string) int {
	count := 0
	for _, b := range f.bookings {
		if b.LocationID == locationID && b.BookingDate == date && b.Status == models.BookingStatusConfirmed {
			count++
		}
	}
	return count
}

func (f *fakeBookingStore) CountConfirmed(ctx context.Context, locationID uuid.UUID, date string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.countLocked(locationID, date), nil
}

func (f *fakeBookingStore) CountConfirmedByLocation(ctx context.Context, date string) (map[uuid.UUID]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return nil, f.countErr
	}
	counts := make(map[uuid.UUID]int)
	for _, b := range f.bookings {
		if b.BookingDate == date && b.Status == models.BookingStatusConfirmed {
			counts[b.LocationID]++
		}
	}
	return counts, nil
}

func (f *fakeBookingStore) AttachOrder(ctx context.Context, id uuid.UUID, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attachErr != nil {
		return f.attachErr
	}
	b, ok := f.bookings[id]
	if !ok {
		return models.ErrBookingNotFound
	}
	if b.Status != models.BookingStatusPending {
		return models.ErrBookingNotPending
	}
	b.RazorpayOrderID = &orderID
	return nil
}

func (f *fakeBookingStore) UpdateStatus(ctx context.Context, id uuid.UUID, update models.StatusUpdate) (*models.Booking, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, models.ErrBookingNotFound
	}
	if b.Status != models.BookingStatusPending {
		return nil, models.ErrBookingNotPending
	}
	b.Status = update.Status
	if update.PaymentStatus != nil {
		b.PaymentStatus = *update.PaymentStatus
	}
	if update.RazorpayPaymentID != nil {
		b.RazorpayPaymentID = update.RazorpayPaymentID
	}
	if update.VerificationMode != nil {
		b.VerificationMode = update.VerificationMode
	}
	if update.FailureReason != nil {
		b.FailureReason = update.FailureReason
	}
	b.UpdatedAt = time.Now()
	return cloneBooking(b), nil
}

func (f *fakeBookingStore) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (*models.Booking, error) {
	return f.UpdateStatus(ctx, id, models.StatusUpdate{Status: models.BookingStatusFailed, FailureReason: &reason})
}

func (f *fakeBookingStore) ConfirmPayment(ctx context.Context, bookingID uuid.UUID, orderID, paymentID string) (*models.Booking, models.ConfirmOutcome, error) {
	return f.confirm(models.ConfirmParams{BookingID: bookingID, OrderID: orderID, PaymentID: paymentID, Mode: models.VerificationCryptographic})
}

func (f *fakeBookingStore) ConfirmSelfReported(ctx context.Context, bookingID uuid.UUID) (*models.Booking, models.ConfirmOutcome, error) {
	return f.confirm(models.ConfirmParams{BookingID: bookingID, Mode: models.VerificationSelfReported})
}

func (f *fakeBookingStore) confirm(p models.ConfirmParams) (*models.Booking, models.ConfirmOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bookings[p.BookingID]
	if !ok {
		return nil, 0, models.ErrBookingNotFound
	}

	if b.Status == models.BookingStatusConfirmed && b.VerificationMode != nil && *b.VerificationMode == p.Mode {
		if p.Mode == models.VerificationSelfReported ||
			(b.HasOrder(p.OrderID) && b.RazorpayPaymentID != nil && *b.RazorpayPaymentID == p.PaymentID) {
			return cloneBooking(b), models.ConfirmOutcomeAlreadyConfirmed, nil
		}
	}
	if p.Mode == models.VerificationCryptographic && b.Status == models.BookingStatusFailed &&
		b.RazorpayPaymentID == nil && b.HasOrder(p.OrderID) {
		mode := p.Mode
		paymentID := p.PaymentID
		b.VerificationMode = &mode
		b.RazorpayPaymentID = &paymentID
		return cloneBooking(b), 0, models.ErrLatePayment
	}
	if b.Status != models.BookingStatusPending {
		return cloneBooking(b), 0, models.ErrBookingNotPending
	}
	if p.Mode == models.VerificationCryptographic && !b.HasOrder(p.OrderID) {
		return cloneBooking(b), 0, models.ErrOrderMismatch
	}

	mode := p.Mode
	b.VerificationMode = &mode
	if p.PaymentID != "" {
		paymentID := p.PaymentID
		b.RazorpayPaymentID = &paymentID
	}

	if f.countLocked(b.LocationID, b.BookingDate) >= f.locations.totalPods(b.LocationID) {
		reason := models.FailureReasonCapacityExhausted
		b.Status = models.BookingStatusFailed
		b.FailureReason = &reason
		return cloneBooking(b), models.ConfirmOutcomeCapacityExhausted, models.ErrCapacityExhausted
	}

	b.Status = models.BookingStatusConfirmed
	if p.Mode == models.VerificationCryptographic {
		b.PaymentStatus = models.PaymentStatusPaid
	}
	return cloneBooking(b), models.ConfirmOutcomeConfirmed, nil
}

func (f *fakeBookingStore) ExpireStalePending(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uuid.UUID
	reason := models.FailureReasonExpired
	for _, b := range f.bookings {
		if len(ids) >= limit {
			break
		}
		if b.Status == models.BookingStatusPending && b.CreatedAt.Before(cutoff) {
			b.Status = models.BookingStatusFailed
			b.FailureReason = &reason
			ids = append(ids, b.ID)
		}
	}
	return ids, nil
}

// setCreatedAt backdates a booking for reaper tests
func (f *fakeBookingStore) setCreatedAt(id uuid.UUID, t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings[id].CreatedAt = t
}

// ============================================================================
// AUDIT
// ============================================================================

type fakeAuditStore struct {
	mu      sync.Mutex
	entries []*models.PaymentAudit
	err     error
}

func (f *fakeAuditStore) Log(ctx context.Context, audit *models.PaymentAudit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, audit)
	return nil
}

func (f *fakeAuditStore) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*models.PaymentAudit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []*models.PaymentAudit
	for _, a := range f.entries {
		if a.BookingID != nil && *a.BookingID == bookingID {
			list = append(list, a)
		}
	}
	return list, nil
}

func (f *fakeAuditStore) events() []models.PaymentEventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]models.PaymentEventType, 0, len(f.entries))
	for _, a := range f.entries {
		types = append(types, a.EventType)
	}
	return types
}

// ============================================================================
// PAYMENT GATEWAY
// ============================================================================

const testSecret = "test_secret"

type fakeGateway struct {
	mu         sync.Mutex
	configured bool
	orderErr   error
	orders     []*CreateOrderParams
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{configured: true}
}

func (g *fakeGateway) IsConfigured() bool { return g.configured }

func (g *fakeGateway) PublicKeyID() string { return "rzp_test_key" }

func (g *fakeGateway) CreateOrder(ctx context.Context, params *CreateOrderParams) (*RazorpayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders = append(g.orders, params)
	if g.orderErr != nil {
		return nil, g.orderErr
	}
	return &RazorpayOrder{
		ID:       fmt.Sprintf("order_TEST%010d", len(g.orders)),
		Amount:   params.AmountMinor,
		Currency: params.Currency,
		Receipt:  params.Receipt,
		Status:   "created",
	}, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	if !g.configured {
		return false
	}
	return hmac.Equal([]byte(ComputeSignature(testSecret, orderID, paymentID)), []byte(signature))
}

func (g *fakeGateway) orderCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.orders)
}

// ============================================================================
// HARNESS
// ============================================================================

var errStorage = errors.New("connection refused")

type testEnv struct {
	locations      *fakeLocationStore
	bookings       *fakeBookingStore
	audits         *fakeAuditStore
	gateway        *fakeGateway
	paymentConfig  *config.PaymentConfig
	availability   *AvailabilityService
	auditSvc       *AuditService
	bookingSvc     *BookingService
	paymentSvc     *PaymentService
	reconciliation *ReconciliationService
}

func newTestEnv(t *testing.T, cache AvailabilityCache) *testEnv {
	t.Helper()

	logger := quietLogger()
	locations := newFakeLocationStore()
	bookings := newFakeBookingStore(locations)
	audits := &fakeAuditStore{}
	gateway := newFakeGateway()
	paymentConfig := testPaymentConfig("")

	availability := NewAvailabilityService(locations, bookings, cache, logger)
	auditSvc := NewAuditService(audits, logger)
	bookingSvc := NewBookingService(bookings, locations, availability, auditSvc, config.BookingConfig{
		PendingTTL:     30 * time.Minute,
		ReaperSchedule: "@every 5m",
		ReaperBatch:    2,
	}, logger)
	paymentSvc := NewPaymentService(bookings, gateway, availability, auditSvc, paymentConfig, logger)
	reconciliation := NewReconciliationService(bookings, availability, paymentSvc, auditSvc, paymentConfig, logger)

	return &testEnv{
		locations:      locations,
		bookings:       bookings,
		audits:         audits,
		gateway:        gateway,
		paymentConfig:  paymentConfig,
		availability:   availability,
		auditSvc:       auditSvc,
		bookingSvc:     bookingSvc,
		paymentSvc:     paymentSvc,
		reconciliation: reconciliation,
	}
}

func newMiniredisCache(t *testing.T) (*RedisAvailabilityCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisAvailabilityCache(client, time.Minute), mr
}

func validBookingRequest(locationID uuid.UUID) *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		LocationID:    locationID.String(),
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		CustomerPhone: "9876543210",
		BookingDate:   "2026-11-20",
		BookingTime:   "14:00",
		Duration:      "4 hours",
		Price:         360,
	}
}

// receiptFor signs a receipt the way the hosted widget would hand it back
func receiptFor(bookingID uuid.UUID, orderID, paymentID string) *models.VerifyPaymentRequest {
	return &models.VerifyPaymentRequest{
		RazorpayOrderID:   orderID,
		RazorpayPaymentID: paymentID,
		RazorpaySignature: ComputeSignature(testSecret, orderID, paymentID),
		BookingID:         bookingID.String(),
	}
}

var testClient = models.ClientInfo{IPAddress: "203.0.113.7", UserAgent: "Mozilla/5.0", DeviceType: "desktop", Browser: "Chrome"}
