package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus is the lifecycle state of a catalog entry.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is a sellable catalog entry with its live price and stock.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Brand     string          `json:"brand"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Status    ProductStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// IsPurchasable reports whether the product can be sold.
func (p *Product) IsPurchasable() bool {
	return p != nil && p.Status == ProductStatusActive
}

// CreateProductRequest is the DTO for creating a product.
type CreateProductRequest struct {
	Name     string          `json:"name" validate:"required,notblank,max=255"`
	Brand    string          `json:"brand" validate:"max=120"`
	Price    decimal.Decimal `json:"price" validate:"gte=0"`
	Quantity *int            `json:"quantity" validate:"required,gte=0"`
	Status   ProductStatus   `json:"status" validate:"omitempty,oneof=active inactive"`
}

// AdjustInventoryRequest is the DTO for an administrative stock adjustment.
type AdjustInventoryRequest struct {
	Delta *int `json:"delta" validate:"required,ne=0"`
}
