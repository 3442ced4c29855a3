package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/sneaker-checkout/internal/model"
	"github.com/fairyhunter13/sneaker-checkout/internal/service"
)

// ProductServiceInterface defines the interface for catalog administration.
type ProductServiceInterface interface {
	Create(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	AdjustInventory(ctx context.Context, id uuid.UUID, delta int) (*model.Product, error)
}

// ProductHandler handles HTTP requests for product operations.
type ProductHandler struct {
	service   ProductServiceInterface
	validator *validator.Validate
}

// NewProductHandler creates a new ProductHandler with the given service and validator.
func NewProductHandler(svc ProductServiceInterface, v *validator.Validate) *ProductHandler {
	return &ProductHandler{service: svc, validator: v}
}

// CreateProduct handles POST /api/admin/products requests.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req model.CreateProductRequest
	if err := decodeStrict(c, h.validator, &req); err != nil {
		return badRequest(c, err.Error())
	}

	product, err := h.service.Create(c.UserContext(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return badRequest(c, "invalid request")
		}
		return internalError(c, err, "failed to create product")
	}

	log.Info().
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Str("product_id", product.ID.String()).
		Int("quantity", product.Quantity).
		Msg("product created")

	return c.Status(fiber.StatusCreated).JSON(product)
}

// GetProduct handles GET /api/products/:id requests.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid request: id must be a valid id")
	}

	product, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
		}
		return internalError(c, err, "failed to get product")
	}
	return c.JSON(product)
}

// AdjustInventory handles POST /api/admin/products/:id/inventory requests.
func (h *ProductHandler) AdjustInventory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid request: id must be a valid id")
	}

	var req model.AdjustInventoryRequest
	if err := decodeStrict(c, h.validator, &req); err != nil {
		return badRequest(c, err.Error())
	}

	product, err := h.service.AdjustInventory(c.UserContext(), id, *req.Delta)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
		case errors.Is(err, service.ErrInsufficientStock):
			return c.Status(fiber.StatusConflict).JSON(errorBody("adjustment would make stock negative", service.KindInsufficientStock))
		case errors.Is(err, service.ErrInvalidRequest):
			return badRequest(c, "invalid request: delta must not be 0")
		}
		return internalError(c, err, "failed to adjust inventory")
	}

	log.Info().
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Str("product_id", id.String()).
		Int("delta", *req.Delta).
		Int("quantity", product.Quantity).
		Msg("inventory adjusted")

	return c.JSON(product)
}
