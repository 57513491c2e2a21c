package services

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/napcube/pod-reservation-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario: a two-pod location fills up; a third booking can still be created
// but checkout is refused before any order is issued.
func TestReconciliation_FullLocationGate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	hub := env.locations.add("Hub", 2)

	list, err := env.availability.AvailabilityForDate(ctx, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 2, list[0].AvailablePods)

	confirmBooking(t, env, hub.ID, "2025-06-01")
	confirmBooking(t, env, hub.ID, "2025-06-01")

	list, err = env.availability.AvailabilityForDate(ctx, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 0, list[0].AvailablePods)

	req := validBookingRequest(hub.ID)
	req.BookingDate = "2025-06-01"
	third, err := env.bookingSvc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, third.Status)

	for _, method := range []models.PaymentMethod{models.PaymentMethodCard, models.PaymentMethodUPILink} {
		_, err = env.reconciliation.StartCheckout(ctx, third.ID, &models.CheckoutRequest{Method: method}, testClient)
		assert.True(t, models.IsKind(err, models.ErrorKindConflict), "method %s: %v", method, err)
	}
	assert.Equal(t, 0, env.gateway.orderCount())
}

// Scenario: hosted checkout issues an order for price x 100 and a correctly signed
// receipt confirms and marks the booking paid.
func TestReconciliation_HostedFlow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	hub := env.locations.add("Hub", 2)
	booking := createPendingBooking(t, env, hub.ID, 360)

	checkout, err := env.reconciliation.StartCheckout(ctx, booking.ID, &models.CheckoutRequest{Method: models.PaymentMethodGPay}, testClient)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationCryptographic, checkout.Mode)
	require.NotNil(t, checkout.Order)
	assert.Equal(t, int64(36000), checkout.Order.Amount)
	assert.Equal(t, checkout.Order.OrderID, checkout.CheckoutOpts["order_id"])
	assert.Equal(t, "NapCube", checkout.CheckoutOpts["name"])
	assert.Equal(t, 2, checkout.Availability.AvailablePods)
	assert.Empty(t, checkout.UPILink)

	const paymentID = "pay_XYZ12345678901"
	result, err := env.reconciliation.CompleteHosted(ctx, booking.ID, &models.HostedCompleteRequest{
		RazorpayOrderID:   checkout.Order.OrderID,
		RazorpayPaymentID: paymentID,
		RazorpaySignature: ComputeSignature(testSecret, checkout.Order.OrderID, paymentID),
	}, testClient)
	require.NoError(t, err)
	assert.True(t, result.Success)

	stored, err := env.bookingSvc.Get(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, stored.Status)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)

	list, err := env.availability.AvailabilityForDate(ctx, stored.BookingDate)
	require.NoError(t, err)
	assert.Equal(t, 1, list[0].AvailablePods)
}

// Scenario: an empty signature fails format validation before any HMAC work.
func TestReconciliation_EmptySignature(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	hub := env.locations.add("Hub", 2)
	booking := createPendingBooking(t, env, hub.ID, 360)

	checkout, err := env.reconciliation.StartCheckout(ctx, booking.ID, nil, testClient)
	require.NoError(t, err)

	result, err := env.reconciliation.CompleteHosted(ctx, booking.ID, &models.HostedCompleteRequest{
		RazorpayOrderID:   checkout.Order.OrderID,
		RazorpayPaymentID: "pay_XYZ12345678901",
		RazorpaySignature: "",
	}, testClient)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.ErrorKindValidation, result.Kind)

	stored, err := env.bookingSvc.Get(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, stored.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, stored.PaymentStatus)
}

func TestReconciliation_ManualUPIFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("Self Reported Paid", func(t *testing.T) {
		env := newTestEnv(t, nil)
		hub := env.locations.add("Hub", 2)
		booking := createPendingBooking(t, env, hub.ID, 360)

		checkout, err := env.reconciliation.StartCheckout(ctx, booking.ID, &models.CheckoutRequest{Method: models.PaymentMethodUPILink}, testClient)
		require.NoError(t, err)
		assert.Equal(t, models.VerificationSelfReported, checkout.Mode)
		assert.Nil(t, checkout.Order)
		assert.Equal(t, 0, env.gateway.orderCount())

		link, err := url.Parse(checkout.UPILink)
		require.NoError(t, err)
		assert.Equal(t, "upi", link.Scheme)
		query := link.Query()
		assert.Equal(t, "napcube@okaxis", query.Get("pa"))
		assert.Equal(t, "360", query.Get("am"))
		assert.Equal(t, "INR", query.Get("cu"))
		assert.True(t, strings.HasPrefix(query.Get("tn"), "NapCube-"+booking.ID.String()[:8]+"-Hub-14:00"))

		confirmed, err := env.reconciliation.SelfReport(ctx, booking.ID, &models.SelfReportRequest{Outcome: models.SelfReportPaid}, testClient)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusConfirmed, confirmed.Status)
		assert.Equal(t, models.PaymentStatusUnpaid, confirmed.PaymentStatus)
		assert.Equal(t, models.VerificationSelfReported, *confirmed.VerificationMode)
		assert.Contains(t, env.audits.events(), models.PaymentEventSelfReportedPaid)

		// Repeating the claim is harmless
		again, err := env.reconciliation.SelfReport(ctx, booking.ID, &models.SelfReportRequest{Outcome: models.SelfReportPaid}, testClient)
		require.NoError(t, err)
		assert.Equal(t, confirmed.ID, again.ID)
	})

	t.Run("Self Reported Failed", func(t *testing.T) {
		env := newTestEnv(t, nil)
		hub := env.locations.add("Hub", 2)
		booking := createPendingBooking(t, env, hub.ID, 360)

		failed, err := env.reconciliation.SelfReport(ctx, booking.ID, &models.SelfReportRequest{Outcome: models.SelfReportFailed}, testClient)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusFailed, failed.Status)
		assert.Equal(t, models.FailureReasonPaymentAbandoned, *failed.FailureReason)
	})

	t.Run("Capacity Re-Checked", func(t *testing.T) {
		env := newTestEnv(t, nil)
		hub := env.locations.add("Hub", 1)
		first := createPendingBooking(t, env, hub.ID, 360)
		second := createPendingBooking(t, env, hub.ID, 360)

		_, err := env.reconciliation.SelfReport(ctx, first.ID, &models.SelfReportRequest{Outcome: models.SelfReportPaid}, testClient)
		require.NoError(t, err)

		_, err = env.reconciliation.SelfReport(ctx, second.ID, &models.SelfReportRequest{Outcome: models.SelfReportPaid}, testClient)
		assert.True(t, models.IsKind(err, models.ErrorKindConflict))
		assert.Contains(t, env.audits.events(), models.PaymentEventCapacityConflict)
	})

	t.Run("Unknown Outcome", func(t *testing.T) {
		env := newTestEnv(t, nil)
		_, err := env.reconciliation.SelfReport(ctx, uuid.New(), &models.SelfReportRequest{Outcome: "maybe"}, testClient)
		assert.True(t, models.IsKind(err, models.ErrorKindValidation))
	})

	t.Run("Payee Not Configured", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.paymentConfig.UPIPayeeID = ""
		hub := env.locations.add("Hub", 2)
		booking := createPendingBooking(t, env, hub.ID, 360)

		_, err := env.reconciliation.StartCheckout(ctx, booking.ID, &models.CheckoutRequest{Method: models.PaymentMethodUPILink}, testClient)
		assert.True(t, models.IsKind(err, models.ErrorKindConfiguration))
	})
}

func TestReconciliation_StartCheckoutValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	hub := env.locations.add("Hub", 2)
	booking := createPendingBooking(t, env, hub.ID, 360)

	_, err := env.reconciliation.StartCheckout(ctx, booking.ID, &models.CheckoutRequest{Method: "cash"}, testClient)
	assert.True(t, models.IsKind(err, models.ErrorKindValidation))

	_, err = env.reconciliation.StartCheckout(ctx, uuid.New(), nil, testClient)
	assert.True(t, models.IsKind(err, models.ErrorKindNotFound))

	_, err = env.bookingSvc.Cancel(ctx, booking.ID, testClient)
	require.NoError(t, err)
	_, err = env.reconciliation.StartCheckout(ctx, booking.ID, nil, testClient)
	assert.True(t, models.IsKind(err, models.ErrorKindConflict))
	assert.Equal(t, 0, env.gateway.orderCount())
}
