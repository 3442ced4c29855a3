package promotion

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/sneaker-checkout/internal/model"
	"github.com/fairyhunter13/sneaker-checkout/internal/pricing"
)

// DiscountReader looks up discounts by code, case-insensitively.
// Returns nil, nil when the code does not exist.
type DiscountReader interface {
	GetByCode(ctx context.Context, code string) (*model.Discount, error)
}

// DiscountValidator resolves a discount code against a cart subtotal.
type DiscountValidator struct {
	discounts DiscountReader
	now       func() time.Time
}

// NewDiscountValidator creates a DiscountValidator using the wall clock.
func NewDiscountValidator(discounts DiscountReader) *DiscountValidator {
	return NewDiscountValidatorWithClock(discounts, time.Now)
}

// NewDiscountValidatorWithClock creates a DiscountValidator with a custom clock.
func NewDiscountValidatorWithClock(discounts DiscountReader, now func() time.Time) *DiscountValidator {
	return &DiscountValidator{discounts: discounts, now: now}
}

// Validate returns nil, nil when no code was supplied, a *Rejection when the code
// cannot be applied, or the resolved application.
// Store failures are returned wrapped and are never reported as rejections.
func (v *DiscountValidator) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*DiscountApplication, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, nil
	}

	discount, err := v.discounts.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get discount: %w", err)
	}
	return EvaluateDiscount(discount, code, subtotal, v.now())
}

// EvaluateDiscount applies the discount rules in order; the first failing rule wins.
func EvaluateDiscount(d *model.Discount, code string, subtotal decimal.Decimal, now time.Time) (*DiscountApplication, error) {
	if d == nil || !d.Active {
		return nil, reject(KindDiscount, code, ReasonInvalidCode, fmt.Sprintf("discount code %q is not valid", code))
	}
	if d.ExpiresAt != nil && now.After(*d.ExpiresAt) {
		return nil, reject(KindDiscount, code, ReasonExpired, fmt.Sprintf("discount code %q has expired", code))
	}
	if d.MaxUses != nil && d.TimesUsed >= *d.MaxUses {
		return nil, reject(KindDiscount, code, ReasonUsageLimitReached, fmt.Sprintf("discount code %q has reached its usage limit", code))
	}
	if d.MinPurchase.Valid && subtotal.LessThan(d.MinPurchase.Decimal) {
		return nil, reject(KindDiscount, code, ReasonBelowMinimumPurchase,
			fmt.Sprintf("discount code %q requires a minimum purchase of %s", code, d.MinPurchase.Decimal.StringFixed(2)))
	}

	var amount decimal.Decimal
	switch d.Type {
	case model.DiscountTypePercentage:
		amount = pricing.Percentage(subtotal, d.Value)
	case model.DiscountTypeFixed:
		amount = d.Value
	default:
		return nil, reject(KindDiscount, code, ReasonInvalidCode, fmt.Sprintf("discount code %q is not valid", code))
	}

	return &DiscountApplication{
		DiscountID: d.ID,
		Code:       d.Code,
		Type:       d.Type,
		Value:      d.Value,
		Amount:     amount,
	}, nil
}

func reject(kind Kind, code string, reason Reason, msg string) *Rejection {
	return &Rejection{Kind: kind, Code: code, Reason: reason, Message: msg}
}
