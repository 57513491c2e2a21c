package services

import (
	"github.com/napcube/pod-reservation-backend/internal/models"
)

// upiAppPackages maps intent-flow methods to their Android packages
var upiAppPackages = map[models.PaymentMethod]string{
	models.PaymentMethodGPay:    "com.google.android.apps.nbu.paisa.user",
	models.PaymentMethodPhonePe: "com.phonepe.app",
	models.PaymentMethodPaytm:   "net.one97.paytm",
}

var upiAppNames = map[models.PaymentMethod]string{
	models.PaymentMethodGPay:    "Google Pay",
	models.PaymentMethodPhonePe: "PhonePe",
	models.PaymentMethodPaytm:   "Paytm",
}

// CheckoutCustomer is the prefill block of the hosted widget
type CheckoutCustomer struct {
	Name  string
	Email string
	Phone string
}

// BuildCheckoutOptions assembles the hosted-checkout widget options for an order.
// Only the publishable key id is included.
func BuildCheckoutOptions(order *models.CreateOrderResponse, merchant string, customer CheckoutCustomer, method models.PaymentMethod) map[string]interface{} {
	return map[string]interface{}{
		"key":         order.KeyID,
		"amount":      order.Amount,
		"currency":    order.Currency,
		"name":        merchant,
		"description": "Sleep Pod Booking",
		"order_id":    order.OrderID,
		"prefill": map[string]string{
			"name":    customer.Name,
			"email":   customer.Email,
			"contact": customer.Phone,
		},
		"config": displayConfig(method),
		"theme": map[string]string{
			"color": "#000028",
		},
	}
}

type instrument map[string]interface{}

func block(name string, instruments ...instrument) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"instruments": instruments,
	}
}

func display(blocks map[string]interface{}, sequence ...string) map[string]interface{} {
	return map[string]interface{}{
		"display": map[string]interface{}{
			"blocks":   blocks,
			"sequence": sequence,
			"preferences": map[string]bool{
				"show_default_blocks": false,
			},
		},
	}
}

// displayConfig narrows the widget to the instruments of one payment method
func displayConfig(method models.PaymentMethod) map[string]interface{} {
	switch method {
	case models.PaymentMethodCard:
		return display(map[string]interface{}{
			"banks": block("Pay via Card or Bank",
				instrument{"method": "card"},
				instrument{"method": "netbanking"},
				instrument{"method": "wallet"},
			),
		}, "block.banks")
	case models.PaymentMethodQR:
		return display(map[string]interface{}{
			"upi": block("Scan QR Code", instrument{"method": "upi", "flows": []string{"qrcode"}}),
		}, "block.upi")
	case models.PaymentMethodOtherUPI:
		return display(map[string]interface{}{
			"upi": block("Enter UPI ID", instrument{"method": "upi", "flows": []string{"collect"}}),
		}, "block.upi")
	}

	if pkg, ok := upiAppPackages[method]; ok {
		return display(map[string]interface{}{
			"upi": block("Pay via "+upiAppNames[method], instrument{
				"method": "upi",
				"flows":  []string{"intent"},
				"apps":   []string{pkg},
			}),
		}, "block.upi")
	}

	return display(map[string]interface{}{
		"upi": block("Pay via UPI", instrument{"method": "upi", "flows": []string{"qrcode", "collect", "intent"}}),
		"other": block("Other Payment Methods",
			instrument{"method": "card"},
			instrument{"method": "netbanking"},
			instrument{"method": "wallet"},
		),
	}, "block.upi", "block.other")
}
