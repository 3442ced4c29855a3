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

// OrderServiceInterface defines the interface for order lookup and lifecycle.
type OrderServiceInterface interface {
	GetByNumber(ctx context.Context, number string) (*model.Order, error)
	UpdateStatus(ctx context.Context, number string, to model.OrderStatus) (*model.Order, error)
}

// OrderHandler handles HTTP requests for order operations.
type OrderHandler struct {
	service   OrderServiceInterface
	validator *validator.Validate
}

// NewOrderHandler creates a new OrderHandler with the given service and validator.
func NewOrderHandler(svc OrderServiceInterface, v *validator.Validate) *OrderHandler {
	return &OrderHandler{service: svc, validator: v}
}

// GetOrder handles GET /api/orders/:number requests.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	number := strings.TrimSpace(c.Params("number"))
	if number == "" {
		return badRequest(c, "invalid request: order number is required")
	}

	order, err := h.service.GetByNumber(c.UserContext(), number)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
		}
		return internalError(c, err, "failed to get order")
	}
	return c.JSON(order)
}

// UpdateStatus handles PATCH /api/admin/orders/:number/status requests.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	number := strings.TrimSpace(c.Params("number"))
	if number == "" {
		return badRequest(c, "invalid request: order number is required")
	}

	var req model.UpdateOrderStatusRequest
	if err := decodeStrict(c, h.validator, &req); err != nil {
		return badRequest(c, err.Error())
	}

	order, err := h.service.UpdateStatus(c.UserContext(), number, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
		case errors.Is(err, service.ErrInvalidTransition):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrConflict):
			return c.Status(fiber.StatusConflict).JSON(errorBody("order status changed concurrently, please retry", service.KindConflict))
		case errors.Is(err, service.ErrInvalidRequest):
			return badRequest(c, "invalid request: status is invalid")
		}
		return internalError(c, err, "failed to update order status")
	}

	log.Info().
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Str("order_number", number).
		Str("status", string(order.Status)).
		Msg("order status changed")

	return c.JSON(order)
}
