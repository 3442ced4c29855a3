package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType selects how a discount value is interpreted.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Discount is a promotional code. Codes are unique regardless of case.
type Discount struct {
	ID          uuid.UUID           `json:"id"`
	Code        string              `json:"code"`
	Type        DiscountType        `json:"type"`
	Value       decimal.Decimal     `json:"value"`
	ExpiresAt   *time.Time          `json:"expires_at,omitempty"`
	MinPurchase decimal.NullDecimal `json:"min_purchase"`
	MaxUses     *int                `json:"max_uses,omitempty"`
	TimesUsed   int                 `json:"times_used"`
	Active      bool                `json:"active"`
	CreatedAt   time.Time           `json:"created_at"`
}

// CreateDiscountRequest is the DTO for creating a discount code.
type CreateDiscountRequest struct {
	Code        string           `json:"code" validate:"required,notblank,max=64"`
	Type        DiscountType     `json:"type" validate:"required,oneof=percentage fixed"`
	Value       decimal.Decimal  `json:"value" validate:"gt=0"`
	ExpiresAt   *time.Time       `json:"expires_at"`
	MinPurchase *decimal.Decimal `json:"min_purchase" validate:"omitempty,gte=0"`
	MaxUses     *int             `json:"max_uses" validate:"omitempty,gte=1"`
}
