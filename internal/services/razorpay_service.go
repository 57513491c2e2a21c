package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/napcube/pod-reservation-backend/internal/config"
	"github.com/sirupsen/logrus"
)

// PaymentGateway is the payment provider used by the payment flows
type PaymentGateway interface {
	IsConfigured() bool
	PublicKeyID() string
	CreateOrder(ctx context.Context, params *CreateOrderParams) (*RazorpayOrder, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// RazorpayService handles payment gateway integration with Razorpay Orders
type RazorpayService struct {
	config *config.PaymentConfig
	logger *logrus.Logger
	client *http.Client
}

// CreateOrderParams contains the parameters for a provider order
type CreateOrderParams struct {
	AmountMinor int64 // paise
	Currency    string
	Receipt     string // booking id
}

// razorpayOrderRequest represents the request sent to POST /v1/orders
type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// RazorpayOrder represents the order returned by Razorpay
type RazorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// razorpayErrorResponse is the provider's error envelope
type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// NewRazorpayService creates a new Razorpay payment service
func NewRazorpayService(cfg *config.PaymentConfig, logger *logrus.Logger) *RazorpayService {
	return &RazorpayService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// IsConfigured checks if both Razorpay credentials are present
func (s *RazorpayService) IsConfigured() bool {
	return s.config.PaymentConfigured()
}

// PublicKeyID returns the publishable key id handed to the checkout widget
func (s *RazorpayService) PublicKeyID() string {
	return s.config.KeyID
}

// CreateOrder creates a trackable order for the given amount
func (s *RazorpayService) CreateOrder(ctx context.Context, params *CreateOrderParams) (*RazorpayOrder, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("payment gateway not configured: missing razorpay credentials")
	}

	request := &razorpayOrderRequest{
		Amount:   params.AmountMinor,
		Currency: params.Currency,
		Receipt:  params.Receipt,
		Notes:    map[string]string{"booking_id": params.Receipt},
	}

	jsonBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpointURL := strings.TrimRight(s.config.APIURL, "/") + "/v1/orders"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.config.KeyID, s.config.KeySecret)

	s.logger.WithFields(logrus.Fields{
		"receipt":  params.Receipt,
		"amount":   params.AmountMinor,
		"currency": params.Currency,
	}).Info("Creating Razorpay order")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WithError(err).Error("Failed to call Razorpay orders endpoint")
		return nil, fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp razorpayErrorResponse
		_ = json.Unmarshal(body, &errResp)
		s.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"error_code":  errResp.Error.Code,
			"description": errResp.Error.Description,
		}).Error("Razorpay order creation failed")
		return nil, fmt.Errorf("payment gateway returned status %d: %s", resp.StatusCode, errResp.Error.Description)
	}

	var order RazorpayOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("payment gateway returned an order without id")
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"receipt":  params.Receipt,
	}).Info("Razorpay order created")

	return &order, nil
}

// ComputeSignature returns hex(HMAC-SHA256(secret, orderID + "|" + paymentID))
func ComputeSignature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a checkout receipt with a constant-time comparison.
// It returns false when the secret is not configured.
func (s *RazorpayService) VerifySignature(orderID, paymentID, signature string) bool {
	if s.config.KeySecret == "" {
		return false
	}
	expected := ComputeSignature(s.config.KeySecret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
