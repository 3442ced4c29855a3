package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/sneaker-checkout/internal/model"
)

var maxPercentage = decimal.NewFromInt(100)

// PromotionService manages discount codes and gift cards.
type PromotionService struct {
	discounts DiscountRepositoryInterface
	giftCards GiftCardRepositoryInterface
}

// NewPromotionService creates a new PromotionService.
func NewPromotionService(discounts DiscountRepositoryInterface, giftCards GiftCardRepositoryInterface) *PromotionService {
	return &PromotionService{discounts: discounts, giftCards: giftCards}
}

// CreateDiscount creates an active discount code.
// Returns ErrDiscountExists if the code is taken and ErrInvalidRequest for a
// percentage above 100 or a non-positive value.
func (s *PromotionService) CreateDiscount(ctx context.Context, req *model.CreateDiscountRequest) (*model.Discount, error) {
	if req == nil || !req.Value.IsPositive() {
		return nil, ErrInvalidRequest
	}
	if req.Type == model.DiscountTypePercentage && req.Value.GreaterThan(maxPercentage) {
		return nil, ErrInvalidRequest
	}
	if req.MinPurchase != nil && req.MinPurchase.IsNegative() {
		return nil, ErrInvalidRequest
	}

	d := &model.Discount{
		ID:        uuid.New(),
		Code:      strings.TrimSpace(req.Code),
		Type:      req.Type,
		Value:     req.Value.Round(2),
		ExpiresAt: req.ExpiresAt,
		MaxUses:   req.MaxUses,
		Active:    true,
	}
	if req.MinPurchase != nil {
		d.MinPurchase = decimal.NewNullDecimal(req.MinPurchase.Round(2))
	}

	if err := s.discounts.Insert(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetDiscount retrieves a discount by code, ignoring case.
// Returns ErrDiscountNotFound if the code doesn't exist.
func (s *PromotionService) GetDiscount(ctx context.Context, code string) (*model.Discount, error) {
	d, err := s.discounts.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("get discount: %w", err)
	}
	if d == nil {
		return nil, ErrDiscountNotFound
	}
	return d, nil
}

// CreateGiftCard issues an active gift card with its full initial balance.
// Returns ErrGiftCardExists if the code is taken.
func (s *PromotionService) CreateGiftCard(ctx context.Context, req *model.CreateGiftCardRequest) (*model.GiftCard, error) {
	if req == nil || !req.InitialBalance.IsPositive() {
		return nil, ErrInvalidRequest
	}

	balance := req.InitialBalance.Round(2)
	g := &model.GiftCard{
		ID:             uuid.New(),
		Code:           strings.TrimSpace(req.Code),
		InitialBalance: balance,
		Balance:        balance,
		Status:         model.GiftCardStatusActive,
	}
	if err := s.giftCards.Insert(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// GetGiftCardBalance returns the public balance view of a gift card.
// Returns ErrGiftCardNotFound if the code doesn't exist.
func (s *PromotionService) GetGiftCardBalance(ctx context.Context, code string) (*model.GiftCardBalanceResponse, error) {
	g, err := s.giftCards.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("get gift card: %w", err)
	}
	if g == nil {
		return nil, ErrGiftCardNotFound
	}
	return &model.GiftCardBalanceResponse{
		Code:    g.Code,
		Balance: g.Balance,
		Status:  g.Status,
	}, nil
}
