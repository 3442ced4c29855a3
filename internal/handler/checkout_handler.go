package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/sneaker-checkout/internal/model"
	"github.com/fairyhunter13/sneaker-checkout/internal/service"
)

// CheckoutServiceInterface defines the interface for settlement operations.
type CheckoutServiceInterface interface {
	Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error)
	CreateManualOrder(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error)
	Quote(ctx context.Context, req *model.CheckoutRequest) (*model.QuoteResponse, error)
}

// CheckoutHandler handles HTTP requests for checkout operations.
type CheckoutHandler struct {
	service   CheckoutServiceInterface
	validator *validator.Validate
}

// NewCheckoutHandler creates a new CheckoutHandler with the given service and validator.
func NewCheckoutHandler(svc CheckoutServiceInterface, v *validator.Validate) *CheckoutHandler {
	return &CheckoutHandler{service: svc, validator: v}
}

// Checkout handles POST /api/checkout requests.
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	return h.settle(c, h.service.Checkout, "checkout settled")
}

// CreateManualOrder handles POST /api/admin/orders requests.
func (h *CheckoutHandler) CreateManualOrder(c *fiber.Ctx) error {
	return h.settle(c, h.service.CreateManualOrder, "manual order created")
}

// Quote handles POST /api/checkout/quote requests.
func (h *CheckoutHandler) Quote(c *fiber.Ctx) error {
	var req model.CheckoutRequest
	if err := decodeStrict(c, h.validator, &req); err != nil {
		return badRequest(c, err.Error())
	}

	quote, err := h.service.Quote(c.UserContext(), &req)
	if err != nil {
		return h.writeCheckoutError(c, err)
	}
	return c.JSON(quote)
}

type settleFunc func(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error)

func (h *CheckoutHandler) settle(c *fiber.Ctx, fn settleFunc, msg string) error {
	var req model.CheckoutRequest
	if err := decodeStrict(c, h.validator, &req); err != nil {
		return badRequest(c, err.Error())
	}

	resp, err := fn(c.UserContext(), &req)
	if err != nil {
		return h.writeCheckoutError(c, err)
	}

	log.Info().
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("order_number", resp.Order.OrderNumber).
		Str("total", resp.Order.Total.StringFixed(2)).
		Msg(msg)

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *CheckoutHandler) writeCheckoutError(c *fiber.Ctx, err error) error {
	ce, ok := service.AsCheckoutError(err)
	if !ok {
		return internalError(c, err, "checkout failed")
	}
	if ce.Kind == service.KindServerError {
		log.Error().
			Err(ce.Err).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("stage", string(ce.Stage)).
			Str("sub_step", string(ce.SubStep)).
			Msg("checkout failed")
	}

	body := errorBody(ce.Message, ce.Kind)
	if ce.ProductName != "" {
		body["product_name"] = ce.ProductName
	}
	if ce.Kind == service.KindProductNotFound || ce.Kind == service.KindInsufficientStock {
		body["product_id"] = ce.ProductID.String()
	}
	return c.Status(checkoutStatus(ce.Kind)).JSON(body)
}

// checkoutStatus maps a checkout error kind to its HTTP status.
func checkoutStatus(kind service.ErrorKind) int {
	switch kind {
	case service.KindEmptyCart, service.KindMissingCustomer, service.KindMissingAddress, service.KindInvalidRequest:
		return fiber.StatusBadRequest
	case service.KindProductNotFound:
		return fiber.StatusNotFound
	case service.KindInsufficientStock, service.KindConflict:
		return fiber.StatusConflict
	case service.KindPromotionRejected:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}
