package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/sneaker-checkout/internal/model"
	"github.com/fairyhunter13/sneaker-checkout/internal/service"
	"github.com/fairyhunter13/sneaker-checkout/pkg/database"
)

// GiftCardRepository provides data access for gift cards using pgx.
type GiftCardRepository struct {
	pool PoolInterface
}

// NewGiftCardRepository creates a new GiftCardRepository with the given pool.
func NewGiftCardRepository(pool *pgxpool.Pool) *GiftCardRepository {
	return &GiftCardRepository{pool: pool}
}

// NewGiftCardRepositoryWithPool creates a new GiftCardRepository with a custom pool interface.
// This is primarily used for testing.
func NewGiftCardRepositoryWithPool(pool PoolInterface) *GiftCardRepository {
	return &GiftCardRepository{pool: pool}
}

// Insert issues a new gift card.
// Returns service.ErrGiftCardExists if the code is taken, ignoring case.
func (r *GiftCardRepository) Insert(ctx context.Context, g *model.GiftCard) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO gift_cards (id, code, initial_balance, balance, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		g.ID, g.Code, g.InitialBalance, g.Balance, g.Status,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "gift_cards_code_lower_key") {
			return service.ErrGiftCardExists
		}
		return fmt.Errorf("insert gift card: %w", err)
	}
	return nil
}

// GetByCode retrieves a gift card by code, ignoring case.
// Returns nil, nil if the card is not found.
func (r *GiftCardRepository) GetByCode(ctx context.Context, code string) (*model.GiftCard, error) {
	query := `SELECT id, code, initial_balance, balance, status, created_at, updated_at
		FROM gift_cards WHERE lower(code) = lower($1)`

	var g model.GiftCard
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&g.ID,
		&g.Code,
		&g.InitialBalance,
		&g.Balance,
		&g.Status,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get gift card by code %s: %w", code, err)
	}
	return &g, nil
}

// Debit subtracts amount from an active card whose live balance still covers it.
// A card debited to zero becomes redeemed.
// Returns service.ErrConflict when the balance was spent concurrently.
func (r *GiftCardRepository) Debit(ctx context.Context, tx database.TxQuerier, id uuid.UUID, amount decimal.Decimal) error {
	query := `UPDATE gift_cards
		SET balance = balance - $2,
		    status = CASE WHEN balance - $2 = 0 THEN 'redeemed' ELSE status END,
		    updated_at = now()
		WHERE id = $1 AND status = 'active' AND balance >= $2`

	tag, err := tx.Exec(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("debit gift card %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrConflict
	}
	return nil
}
