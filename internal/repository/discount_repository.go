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

// DiscountRepository provides data access for discount codes using pgx.
type DiscountRepository struct {
	pool PoolInterface
}

// NewDiscountRepository creates a new DiscountRepository with the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// NewDiscountRepositoryWithPool creates a new DiscountRepository with a custom pool interface.
// This is primarily used for testing.
func NewDiscountRepositoryWithPool(pool PoolInterface) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// Insert inserts a new discount.
// Returns service.ErrDiscountExists if the code is taken, ignoring case.
func (r *DiscountRepository) Insert(ctx context.Context, d *model.Discount) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO discounts (id, code, type, value, expires_at, min_purchase, max_uses, times_used, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		d.ID, d.Code, d.Type, d.Value, d.ExpiresAt, d.MinPurchase, d.MaxUses, d.TimesUsed, d.Active,
	).Scan(&d.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "discounts_code_lower_key") {
			return service.ErrDiscountExists
		}
		return fmt.Errorf("insert discount: %w", err)
	}
	return nil
}

// GetByCode retrieves a discount by code, ignoring case.
// Returns nil, nil if the discount is not found.
func (r *DiscountRepository) GetByCode(ctx context.Context, code string) (*model.Discount, error) {
	query := `SELECT id, code, type, value, expires_at, min_purchase, max_uses, times_used, active, created_at
		FROM discounts WHERE lower(code) = lower($1)`

	var d model.Discount
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&d.ID,
		&d.Code,
		&d.Type,
		&d.Value,
		&d.ExpiresAt,
		&d.MinPurchase,
		&d.MaxUses,
		&d.TimesUsed,
		&d.Active,
		&d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get discount by code %s: %w", code, err)
	}
	return &d, nil
}

// IncrementUsage records one use of the discount while it is still active and below its limit.
// Returns service.ErrConflict when another checkout took the last use first.
func (r *DiscountRepository) IncrementUsage(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
	query := `UPDATE discounts SET times_used = times_used + 1
		WHERE id = $1 AND active AND (max_uses IS NULL OR times_used < max_uses)`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment usage for discount %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrConflict
	}
	return nil
}
