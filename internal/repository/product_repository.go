package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/sneaker-checkout/internal/model"
	"github.com/fairyhunter13/sneaker-checkout/internal/service"
	"github.com/fairyhunter13/sneaker-checkout/pkg/database"
)

const (
	productColumns = `id, name, brand, price, quantity, status, created_at, updated_at`

	constraintProductQuantity = "products_quantity_check"
)

// ProductRepository provides data access for catalog products using pgx.
type ProductRepository struct {
	pool PoolInterface
}

// NewProductRepository creates a new ProductRepository with the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// NewProductRepositoryWithPool creates a new ProductRepository with a custom pool interface.
// This is primarily used for testing.
func NewProductRepositoryWithPool(pool PoolInterface) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Brand,
		&p.Price,
		&p.Quantity,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Insert inserts a new product and fills in its timestamps.
func (r *ProductRepository) Insert(ctx context.Context, p *model.Product) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (id, name, brand, price, quantity, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Brand, p.Price, p.Quantity, p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by its id.
// Returns nil, nil if the product is not found (service layer handles this).
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// DecrementStock removes qty units from an active product, but only while enough stock remains.
// Returns service.ErrConflict when the live quantity no longer covers qty or the product
// was deactivated after validation.
// Must be called within the settlement transaction.
func (r *ProductRepository) DecrementStock(ctx context.Context, tx database.TxQuerier, id uuid.UUID, qty int) error {
	query := `UPDATE products SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND quantity >= $2 AND status = 'active'`

	tag, err := tx.Exec(ctx, query, id, qty)
	if err != nil {
		return fmt.Errorf("decrement stock for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrConflict
	}
	return nil
}

// AdjustStock applies an administrative delta with the same conditional discipline as checkout.
// Returns service.ErrProductNotFound for unknown ids and service.ErrInsufficientStock when
// the delta would take the quantity below zero.
func (r *ProductRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*model.Product, error) {
	query := `UPDATE products SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING ` + productColumns

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id, delta))
	if err == nil {
		return p, nil
	}
	if database.IsCheckViolation(err, constraintProductQuantity) {
		return nil, service.ErrInsufficientStock
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("adjust stock for %s: %w", id, err)
	}

	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, service.ErrProductNotFound
	}
	return nil, service.ErrInsufficientStock
}
