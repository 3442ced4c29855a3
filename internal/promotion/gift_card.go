package promotion

import (
	"context"
	"fmt"

	"github.com/fairyhunter13/sneaker-checkout/internal/model"
)

// GiftCardReader looks up gift cards by code, case-insensitively.
// Returns nil, nil when the code does not exist.
type GiftCardReader interface {
	GetByCode(ctx context.Context, code string) (*model.GiftCard, error)
}

// GiftCardValidator resolves a gift card code to its spendable balance.
type GiftCardValidator struct {
	giftCards GiftCardReader
}

// NewGiftCardValidator creates a GiftCardValidator.
func NewGiftCardValidator(giftCards GiftCardReader) *GiftCardValidator {
	return &GiftCardValidator{giftCards: giftCards}
}

// Validate returns nil, nil when no code was supplied, a *Rejection when the card
// cannot be used, or the card's available balance.
func (v *GiftCardValidator) Validate(ctx context.Context, code string) (*GiftCardApplication, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, nil
	}

	card, err := v.giftCards.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get gift card: %w", err)
	}
	return EvaluateGiftCard(card, code)
}

// EvaluateGiftCard rejects unknown, inactive and empty cards.
func EvaluateGiftCard(g *model.GiftCard, code string) (*GiftCardApplication, error) {
	if g == nil {
		return nil, reject(KindGiftCard, code, ReasonNotFound, fmt.Sprintf("gift card %q was not found", code))
	}
	if g.Status != model.GiftCardStatusActive {
		return nil, reject(KindGiftCard, code, ReasonNotActive, fmt.Sprintf("gift card %q is not active", code))
	}
	if !g.Balance.IsPositive() {
		return nil, reject(KindGiftCard, code, ReasonZeroBalance, fmt.Sprintf("gift card %q has no remaining balance", code))
	}

	return &GiftCardApplication{
		GiftCardID: g.ID,
		Code:       g.Code,
		Balance:    g.Balance,
	}, nil
}
