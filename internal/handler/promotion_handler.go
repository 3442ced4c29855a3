package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/sneaker-checkout/internal/model"
	"github.com/fairyhunter13/sneaker-checkout/internal/service"
)

// PromotionServiceInterface defines the interface for discount and gift card management.
type PromotionServiceInterface interface {
	CreateDiscount(ctx context.Context, req *model.CreateDiscountRequest) (*model.Discount, error)
	GetDiscount(ctx context.Context, code string) (*model.Discount, error)
	CreateGiftCard(ctx context.Context, req *model.CreateGiftCardRequest) (*model.GiftCard, error)
	GetGiftCardBalance(ctx context.Context, code string) (*model.GiftCardBalanceResponse, error)
}

// PromotionHandler handles HTTP requests for discounts and gift cards.
type PromotionHandler struct {
	service   PromotionServiceInterface
	validator *validator.Validate
}

// NewPromotionHandler creates a new PromotionHandler with the given service and validator.
func NewPromotionHandler(svc PromotionServiceInterface, v *validator.Validate) *PromotionHandler {
	return &PromotionHandler{service: svc, validator: v}
}

// CreateDiscount handles POST /api/admin/discounts requests.
func (h *PromotionHandler) CreateDiscount(c *fiber.Ctx) error {
	var req model.CreateDiscountRequest
	if err := decodeStrict(c, h.validator, &req); err != nil {
		return badRequest(c, err.Error())
	}

	discount, err := h.service.CreateDiscount(c.UserContext(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDiscountExists):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "discount code already exists"})
		case errors.Is(err, service.ErrInvalidRequest):
			return badRequest(c, "invalid request: discount value is out of range")
		}
		return internalError(c, err, "failed to create discount")
	}

	log.Info().
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Str("code", discount.Code).
		Str("type", string(discount.Type)).
		Msg("discount created")

	return c.Status(fiber.StatusCreated).JSON(discount)
}

// GetDiscount handles GET /api/admin/discounts/:code requests.
func (h *PromotionHandler) GetDiscount(c *fiber.Ctx) error {
	code := strings.TrimSpace(c.Params("code"))
	if code == "" {
		return badRequest(c, "invalid request: code is required")
	}

	discount, err := h.service.GetDiscount(c.UserContext(), code)
	if err != nil {
		if errors.Is(err, service.ErrDiscountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "discount not found"})
		}
		return internalError(c, err, "failed to get discount")
	}
	return c.JSON(discount)
}

// CreateGiftCard handles POST /api/admin/gift-cards requests.
func (h *PromotionHandler) CreateGiftCard(c *fiber.Ctx) error {
	var req model.CreateGiftCardRequest
	if err := decodeStrict(c, h.validator, &req); err != nil {
		return badRequest(c, err.Error())
	}

	card, err := h.service.CreateGiftCard(c.UserContext(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGiftCardExists):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "gift card code already exists"})
		case errors.Is(err, service.ErrInvalidRequest):
			return badRequest(c, "invalid request: initial_balance must be greater than 0")
		}
		return internalError(c, err, "failed to create gift card")
	}

	log.Info().
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Str("code", card.Code).
		Str("balance", card.Balance.StringFixed(2)).
		Msg("gift card issued")

	return c.Status(fiber.StatusCreated).JSON(card)
}

// GetGiftCardBalance handles GET /api/gift-cards/:code requests.
func (h *PromotionHandler) GetGiftCardBalance(c *fiber.Ctx) error {
	code := strings.TrimSpace(c.Params("code"))
	if code == "" {
		return badRequest(c, "invalid request: code is required")
	}

	balance, err := h.service.GetGiftCardBalance(c.UserContext(), code)
	if err != nil {
		if errors.Is(err, service.ErrGiftCardNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "gift card not found"})
		}
		return internalError(c, err, "failed to get gift card")
	}
	return c.JSON(balance)
}
