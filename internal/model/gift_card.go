package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GiftCardStatus is the lifecycle state of a gift card.
type GiftCardStatus string

const (
	GiftCardStatusActive   GiftCardStatus = "active"
	GiftCardStatusRedeemed GiftCardStatus = "redeemed"
	GiftCardStatusDisabled GiftCardStatus = "disabled"
)

// GiftCard is a stored-value instrument. Balance stays within [0, InitialBalance].
type GiftCard struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Balance        decimal.Decimal `json:"balance"`
	Status         GiftCardStatus  `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CreateGiftCardRequest is the DTO for issuing a gift card.
type CreateGiftCardRequest struct {
	Code           string          `json:"code" validate:"required,notblank,max=64"`
	InitialBalance decimal.Decimal `json:"initial_balance" validate:"gt=0"`
}

// GiftCardBalanceResponse is the public view of a gift card.
type GiftCardBalanceResponse struct {
	Code    string          `json:"code"`
	Balance decimal.Decimal `json:"balance"`
	Status  GiftCardStatus  `json:"status"`
}
