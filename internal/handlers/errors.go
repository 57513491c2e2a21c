package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/napcube/pod-reservation-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// statusForKind maps an error kind to its HTTP status code
func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.ErrorKindValidation, models.ErrorKindVerification:
		return http.StatusBadRequest
	case models.ErrorKindNotFound:
		return http.StatusNotFound
	case models.ErrorKindConflict:
		return http.StatusConflict
	case models.ErrorKindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// opaqueMessages are the only texts a 5xx response ever carries
var opaqueMessages = map[models.ErrorKind]string{
	models.ErrorKindConfiguration: "Payment service is temporarily unavailable",
	models.ErrorKindUpstream:      "Payment provider is temporarily unavailable",
	models.ErrorKindStorage:       "Service temporarily unavailable",
	models.ErrorKindInternal:      "Internal server error",
}

// respondError writes err as an ErrorResponse. Server faults are logged in full
// and answered with an opaque message.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	kind, status, message := describeError(c, logger, err)

	c.JSON(status, ErrorResponse{
		Error:   string(kind),
		Message: message,
		Code:    strings.ToUpper(string(kind)),
	})
}

// respondVerificationError writes err in the {success:false, error} shape the
// verification endpoints answer with
func respondVerificationError(c *gin.Context, logger *logrus.Logger, err error) {
	_, status, message := describeError(c, logger, err)

	c.JSON(status, models.VerificationResult{
		Success: false,
		Error:   message,
	})
}

// describeError logs err and resolves the status and client-safe message for it
func describeError(c *gin.Context, logger *logrus.Logger, err error) (models.ErrorKind, int, string) {
	kind := models.ErrorKindOf(err)
	status := statusForKind(kind)

	message := opaqueMessages[kind]
	if status < http.StatusInternalServerError {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
	}
	if message == "" {
		message = opaqueMessages[models.ErrorKindInternal]
	}

	entry := logger.WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"status": status,
		"kind":   kind,
	})
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Error("Request failed")
	} else {
		entry.WithError(err).Debug("Request rejected")
	}

	return kind, status, message
}

// bindError answers a malformed JSON body
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   string(models.ErrorKindValidation),
		Message: "Invalid request body: " + err.Error(),
		Code:    "INVALID_REQUEST",
	})
}

// parseIDParam reads a UUID path parameter, answering 400 when it is malformed
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   string(models.ErrorKindValidation),
			Message: "Invalid " + name + " format",
			Code:    "INVALID_ID",
		})
		return uuid.Nil, false
	}
	return id, true
}

// respondVerification writes a verification result with a status matching its outcome
func respondVerification(c *gin.Context, result *models.VerificationResult) {
	status := http.StatusOK
	if !result.Success {
		status = statusForKind(result.Kind)
	}
	c.JSON(status, result)
}
