package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/napcube/pod-reservation-backend/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, _ := json.Marshal(b)
		reader = bytes.NewBuffer(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Real-IP", "203.0.113.7")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 14; Pixel 8) Chrome/126.0 Mobile Safari/537.36")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

type stubAvailability struct {
	locations   []models.Location
	list        []models.LocationAvailability
	single      *models.LocationAvailability
	err         error
	gotDate     string
	gotLocation uuid.UUID
}

func (s *stubAvailability) ListLocations(ctx context.Context) ([]models.Location, error) {
	return s.locations, s.err
}

func (s *stubAvailability) AvailabilityForDate(ctx context.Context, date string) ([]models.LocationAvailability, error) {
	s.gotDate = date
	return s.list, s.err
}

func (s *stubAvailability) AvailabilityForLocation(ctx context.Context, locationID uuid.UUID, date string) (*models.LocationAvailability, error) {
	s.gotLocation = locationID
	s.gotDate = date
	return s.single, s.err
}

type stubBookings struct {
	booking   *models.Booking
	err       error
	gotReq    *models.CreateBookingRequest
	gotID     uuid.UUID
	gotClient models.ClientInfo
}

func (s *stubBookings) Create(ctx context.Context, req *models.CreateBookingRequest) (*models.Booking, error) {
	s.gotReq = req
	return s.booking, s.err
}

func (s *stubBookings) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	s.gotID = id
	return s.booking, s.err
}

func (s *stubBookings) Cancel(ctx context.Context, id uuid.UUID, client models.ClientInfo) (*models.Booking, error) {
	s.gotID = id
	s.gotClient = client
	return s.booking, s.err
}

type stubCheckout struct {
	checkout      *models.CheckoutResponse
	result        *models.VerificationResult
	booking       *models.Booking
	err           error
	gotMethod     models.PaymentMethod
	gotReceipt    *models.HostedCompleteRequest
	gotSelfReport *models.SelfReportRequest
	gotClient     models.ClientInfo
}

func (s *stubCheckout) StartCheckout(ctx context.Context, bookingID uuid.UUID, req *models.CheckoutRequest, client models.ClientInfo) (*models.CheckoutResponse, error) {
	s.gotMethod = req.Method
	s.gotClient = client
	return s.checkout, s.err
}

func (s *stubCheckout) CompleteHosted(ctx context.Context, bookingID uuid.UUID, req *models.HostedCompleteRequest, client models.ClientInfo) (*models.VerificationResult, error) {
	s.gotReceipt = req
	return s.result, s.err
}

func (s *stubCheckout) SelfReport(ctx context.Context, bookingID uuid.UUID, req *models.SelfReportRequest, client models.ClientInfo) (*models.Booking, error) {
	s.gotSelfReport = req
	return s.booking, s.err
}

type stubPayments struct {
	order     *models.CreateOrderResponse
	result    *models.VerificationResult
	err       error
	gotOrder  *models.CreateOrderRequest
	gotVerify *models.VerifyPaymentRequest
}

func (s *stubPayments) CreateOrder(ctx context.Context, req *models.CreateOrderRequest, client models.ClientInfo) (*models.CreateOrderResponse, error) {
	s.gotOrder = req
	return s.order, s.err
}

func (s *stubPayments) VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest, client models.ClientInfo) (*models.VerificationResult, error) {
	s.gotVerify = req
	return s.result, s.err
}

type stubAdmin struct {
	location *models.Location
	expired  int
	audits   []*models.PaymentAudit
	err      error
	gotPods  int
}

func (s *stubAdmin) UpdateCapacity(ctx context.Context, locationID uuid.UUID, totalPods int) (*models.Location, error) {
	s.gotPods = totalPods
	return s.location, s.err
}

func (s *stubAdmin) RunReaperNow(ctx context.Context) (int, error) {
	return s.expired, s.err
}

func (s *stubAdmin) GetJobStatus() map[string]interface{} {
	return map[string]interface{}{
		"schedule":  "@every 5m",
		"running":   true,
		"job_count": 1,
	}
}

func (s *stubAdmin) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*models.PaymentAudit, error) {
	return s.audits, s.err
}

func sampleBooking() *models.Booking {
	return &models.Booking{
		ID:            uuid.MustParse("7f3c2a10-5b7e-4c1d-9a2e-0d4b6c8e1f23"),
		LocationID:    uuid.MustParse("0b9d2f4e-1c3a-4e5f-8a7b-6c5d4e3f2a1b"),
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		BookingDate:   "2026-11-20",
		BookingTime:   "14:00",
		Duration:      "3 hours",
		Price:         360,
		Status:        models.BookingStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
	}
}
