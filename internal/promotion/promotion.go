// Package promotion decides whether a discount code or gift card can be applied to a cart.
//
// Validators only read. Usage counters and balances are mutated later, inside the
// settlement transaction, with conditional updates.
package promotion

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/sneaker-checkout/internal/model"
)

// Kind identifies the promotional instrument a rejection belongs to.
type Kind string

const (
	KindDiscount Kind = "discount"
	KindGiftCard Kind = "gift_card"
)

// Reason is the machine readable cause of a rejection.
type Reason string

const (
	ReasonInvalidCode          Reason = "INVALID_CODE"
	ReasonExpired              Reason = "EXPIRED"
	ReasonUsageLimitReached    Reason = "USAGE_LIMIT_REACHED"
	ReasonBelowMinimumPurchase Reason = "BELOW_MINIMUM_PURCHASE"
	ReasonNotFound             Reason = "NOT_FOUND"
	ReasonNotActive            Reason = "NOT_ACTIVE"
	ReasonZeroBalance          Reason = "ZERO_BALANCE"
)

// Rejection is returned when a supplied code resolves to something that cannot be applied.
type Rejection struct {
	Kind    Kind
	Code    string
	Reason  Reason
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

// AsRejection unwraps err into a *Rejection.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// DiscountApplication is a discount that passed validation. Amount is not clamped.
type DiscountApplication struct {
	DiscountID uuid.UUID
	Code       string
	Type       model.DiscountType
	Value      decimal.Decimal
	Amount     decimal.Decimal
}

// GiftCardApplication is a gift card that passed validation.
type GiftCardApplication struct {
	GiftCardID uuid.UUID
	Code       string
	Balance    decimal.Decimal
}

// NormalizeCode trims surrounding whitespace. Case folding happens in the store lookup.
func NormalizeCode(code string) string {
	return strings.TrimSpace(code)
}
