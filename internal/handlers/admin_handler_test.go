package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/napcube/pod-reservation-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAdminHandler(stub *stubAdmin) *AdminHandler {
	return NewAdminHandler(stub, stub, stub, quietLogger())
}

func TestUpdateCapacity(t *testing.T) {
	locationID := uuid.New()

	t.Run("Updated", func(t *testing.T) {
		stub := &stubAdmin{location: &models.Location{ID: locationID, Name: "Andheri", TotalPods: 6}}
		router := setupTestRouter()
		router.PUT("/admin/locations/:id/capacity", setupAdminHandler(stub).UpdateCapacity)

		w := performRequest(router, "PUT", "/admin/locations/"+locationID.String()+"/capacity", map[string]int{"total_pods": 6})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 6, stub.gotPods)
		assert.Contains(t, w.Body.String(), `"total_pods":6`)
	})

	t.Run("Zero pods rejected at binding", func(t *testing.T) {
		stub := &stubAdmin{}
		router := setupTestRouter()
		router.PUT("/admin/locations/:id/capacity", setupAdminHandler(stub).UpdateCapacity)

		w := performRequest(router, "PUT", "/admin/locations/"+locationID.String()+"/capacity", map[string]int{"total_pods": 0})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 0, stub.gotPods)
	})

	t.Run("Unknown location", func(t *testing.T) {
		stub := &stubAdmin{err: models.ErrLocationNotFound}
		router := setupTestRouter()
		router.PUT("/admin/locations/:id/capacity", setupAdminHandler(stub).UpdateCapacity)

		w := performRequest(router, "PUT", "/admin/locations/"+locationID.String()+"/capacity", map[string]int{"total_pods": 3})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestReapPendingBookings(t *testing.T) {
	stub := &stubAdmin{expired: 3}
	router := setupTestRouter()
	router.POST("/admin/bookings/reap", setupAdminHandler(stub).ReapPendingBookings)

	w := performRequest(router, "POST", "/admin/bookings/reap", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decodeBody(t, w)["expired"])
}

func TestGetJobStatus(t *testing.T) {
	router := setupTestRouter()
	router.GET("/admin/jobs", setupAdminHandler(&stubAdmin{}).GetJobStatus)

	w := performRequest(router, "GET", "/admin/jobs", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "@every 5m", body["schedule"])
	assert.Equal(t, true, body["running"])
	assert.Equal(t, float64(1), body["job_count"])
}

func TestGetBookingAudit(t *testing.T) {
	bookingID := uuid.New()

	t.Run("Events", func(t *testing.T) {
		audit := models.NewPaymentAudit(models.PaymentEventVerificationSucceeded, models.PaymentSourceCustomer).
			SetBooking(bookingID).
			SetOrder("order_TEST0000000001")
		stub := &stubAdmin{audits: []*models.PaymentAudit{audit}}
		router := setupTestRouter()
		router.GET("/admin/bookings/:id/audit", setupAdminHandler(stub).GetBookingAudit)

		w := performRequest(router, "GET", "/admin/bookings/"+bookingID.String()+"/audit", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "verification_succeeded")
		assert.Contains(t, w.Body.String(), "order_TEST0000000001")
	})

	t.Run("No events", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/admin/bookings/:id/audit", setupAdminHandler(&stubAdmin{}).GetBookingAudit)

		w := performRequest(router, "GET", "/admin/bookings/"+bookingID.String()+"/audit", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"events":[]`)
	})
}
