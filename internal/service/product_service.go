package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fairyhunter13/sneaker-checkout/internal/model"
)

// ProductService provides catalog administration.
type ProductService struct {
	products ProductRepositoryInterface
}

// NewProductService creates a new ProductService.
func NewProductService(products ProductRepositoryInterface) *ProductService {
	return &ProductService{products: products}
}

// Create adds a product to the catalog. Status defaults to active.
// Returns ErrInvalidRequest if request data is nil or incomplete.
func (s *ProductService) Create(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error) {
	if req == nil || req.Quantity == nil || *req.Quantity < 0 || req.Price.IsNegative() {
		return nil, ErrInvalidRequest
	}

	status := req.Status
	if status == "" {
		status = model.ProductStatusActive
	}

	p := &model.Product{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(req.Name),
		Brand:    strings.TrimSpace(req.Brand),
		Price:    req.Price.Round(2),
		Quantity: *req.Quantity,
		Status:   status,
	}
	if err := s.products.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get retrieves a product by id.
// Returns ErrProductNotFound if the product doesn't exist.
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// AdjustInventory restocks (positive delta) or writes off (negative delta) units.
// Returns ErrInsufficientStock if the adjustment would make stock negative.
func (s *ProductService) AdjustInventory(ctx context.Context, id uuid.UUID, delta int) (*model.Product, error) {
	if delta == 0 {
		return nil, ErrInvalidRequest
	}
	return s.products.AdjustStock(ctx, id, delta)
}
