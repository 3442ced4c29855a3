package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/sneaker-checkout/internal/model"
	"github.com/fairyhunter13/sneaker-checkout/pkg/database"
)

// CatalogReader looks up the live price and stock of a product.
// Returns nil, nil when the product does not exist.
type CatalogReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

// ProductRepositoryInterface defines the interface for product data access.
type ProductRepositoryInterface interface {
	CatalogReader
	Insert(ctx context.Context, p *model.Product) error
	DecrementStock(ctx context.Context, tx database.TxQuerier, id uuid.UUID, qty int) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*model.Product, error)
}

// DiscountRepositoryInterface defines the interface for discount data access.
type DiscountRepositoryInterface interface {
	Insert(ctx context.Context, d *model.Discount) error
	GetByCode(ctx context.Context, code string) (*model.Discount, error)
	IncrementUsage(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error
}

// GiftCardRepositoryInterface defines the interface for gift card data access.
type GiftCardRepositoryInterface interface {
	Insert(ctx context.Context, g *model.GiftCard) error
	GetByCode(ctx context.Context, code string) (*model.GiftCard, error)
	Debit(ctx context.Context, tx database.TxQuerier, id uuid.UUID, amount decimal.Decimal) error
}

// OrderRepositoryInterface defines the interface for order data access.
type OrderRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, o *model.Order) error
	GetByNumber(ctx context.Context, number string) (*model.Order, error)
	UpdateStatus(ctx context.Context, number string, from, to model.OrderStatus) error
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
