package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods accepted at checkout. Authorization itself happens outside this service.
const (
	PaymentMethodCard           = "card"
	PaymentMethodBankTransfer   = "bank_transfer"
	PaymentMethodCashOnDelivery = "cash_on_delivery"
)

// CartLineRequest is one cart entry as sent by the client. Prices are never accepted from clients.
type CartLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Size      string `json:"size" validate:"max=32"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=100"`
}

// CustomerInfo holds the buyer's contact details.
type CustomerInfo struct {
	Email string `json:"email" validate:"omitempty,email,max=255"`
	Name  string `json:"name" validate:"max=255"`
	Phone string `json:"phone" validate:"max=40"`
}

// CheckoutRequest is the DTO for POST /api/checkout and /api/checkout/quote.
// Presence checks (cart, email, address) are left to the settlement so they surface with their own error kinds.
type CheckoutRequest struct {
	Items           []CartLineRequest `json:"items" validate:"max=50,dive"`
	Customer        CustomerInfo      `json:"customer"`
	ShippingAddress *Address          `json:"shipping_address"`
	DiscountCode    string            `json:"discount_code" validate:"max=64"`
	GiftCardCode    string            `json:"gift_card_code" validate:"max=64"`
	PaymentMethod   string            `json:"payment_method" validate:"omitempty,oneof=card bank_transfer cash_on_delivery"`
}

// CartLine is a parsed cart entry.
type CartLine struct {
	ProductID uuid.UUID
	Size      string
	Quantity  int
}

// PriceBreakdown echoes the settlement totals.
type PriceBreakdown struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	GiftCardAmount decimal.Decimal `json:"gift_card_amount"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	Total          decimal.Decimal `json:"total"`
}

// PromotionNotice tells the customer why a supplied code was not applied.
type PromotionNotice struct {
	Code    string `json:"code"`
	Kind    string `json:"kind"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// CheckoutResponse is returned after a successful settlement.
type CheckoutResponse struct {
	Order   *Order            `json:"order"`
	Notices []PromotionNotice `json:"notices"`
}

// QuoteResponse is the read-only pricing preview of a cart.
type QuoteResponse struct {
	Items   []OrderLineItem   `json:"items"`
	Totals  PriceBreakdown    `json:"totals"`
	Notices []PromotionNotice `json:"notices"`
}
