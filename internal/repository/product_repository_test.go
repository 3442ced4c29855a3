package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/sneaker-checkout/internal/model"
	"github.com/fairyhunter13/sneaker-checkout/internal/service"
	"github.com/fairyhunter13/sneaker-checkout/pkg/database"
)

func productRow(id uuid.UUID, qty int, status model.ProductStatus) *mockRow {
	now := time.Now()
	return rowOf(id, "Air Jordan 1 Chicago", "Nike", decimal.RequireFromString("50.00"), qty, status, now, now)
}

func TestProductRepository_GetByID_Success(t *testing.T) {
	id := uuid.New()
	var capturedSQL string
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			capturedSQL = sql
			assert.Equal(t, id, args[0])
			return productRow(id, 7, model.ProductStatusActive)
		},
	}

	repo := NewProductRepositoryWithPool(mock)
	p, err := repo.GetByID(context.Background(), id)

	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Contains(t, capturedSQL, "FROM products WHERE id = $1")
	assert.Equal(t, id, p.ID)
	assert.Equal(t, "Air Jordan 1 Chicago", p.Name)
	assert.Equal(t, 7, p.Quantity)
	assert.True(t, decimal.RequireFromString("50").Equal(p.Price))
	assert.True(t, p.IsPurchasable())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return errRow(pgx.ErrNoRows)
		},
	}

	p, err := NewProductRepositoryWithPool(mock).GetByID(context.Background(), uuid.New())

	require.NoError(t, err, "not found is not an error at the repository level")
	assert.Nil(t, p)
}

func TestProductRepository_GetByID_DatabaseError(t *testing.T) {
	dbErr := errors.New("connection refused")
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return errRow(dbErr)
		},
	}

	p, err := NewProductRepositoryWithPool(mock).GetByID(context.Background(), uuid.New())

	require.Error(t, err)
	assert.Nil(t, p)
	assert.True(t, errors.Is(err, dbErr), "should wrap original error")
}

func TestProductRepository_Insert(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var capturedArgs []any
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			assert.Contains(t, sql, "INSERT INTO products")
			capturedArgs = args
			return rowOf(created, created)
		},
	}

	p := &model.Product{
		ID:       uuid.New(),
		Name:     "Yeezy 350",
		Price:    decimal.RequireFromString("220"),
		Quantity: 3,
		Status:   model.ProductStatusActive,
	}
	err := NewProductRepositoryWithPool(mock).Insert(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, p.ID, capturedArgs[0])
	assert.Equal(t, 3, capturedArgs[4])
	assert.Equal(t, created, p.CreatedAt)
}

func TestProductRepository_DecrementStock_IsConditional(t *testing.T) {
	id := uuid.New()
	var capturedSQL string
	var capturedArgs []any
	tx := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			capturedSQL = sql
			capturedArgs = arguments
			return rowTag(1), nil
		},
	}

	err := NewProductRepositoryWithPool(&mockPool{}).DecrementStock(context.Background(), tx, id, 2)

	require.NoError(t, err)
	assert.Contains(t, capturedSQL, "quantity = quantity - $2")
	assert.Contains(t, capturedSQL, "quantity >= $2")
	assert.Contains(t, capturedSQL, "status = 'active'")
	assert.Equal(t, []any{id, 2}, capturedArgs)
}

func TestProductRepository_DecrementStock_NoRowsIsConflict(t *testing.T) {
	tx := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return rowTag(0), nil
		},
	}

	err := NewProductRepositoryWithPool(&mockPool{}).DecrementStock(context.Background(), tx, uuid.New(), 1)

	assert.True(t, errors.Is(err, service.ErrConflict))
}

func TestProductRepository_DecrementStock_DatabaseError(t *testing.T) {
	dbErr := errors.New("deadlock detected")
	tx := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, dbErr
		},
	}

	err := NewProductRepositoryWithPool(&mockPool{}).DecrementStock(context.Background(), tx, uuid.New(), 1)

	require.Error(t, err)
	assert.False(t, errors.Is(err, service.ErrConflict))
	assert.True(t, errors.Is(err, dbErr))
}

func TestProductRepository_AdjustStock(t *testing.T) {
	id := uuid.New()

	t.Run("applied", func(t *testing.T) {
		mock := &mockPool{
			queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
				assert.Contains(t, sql, "quantity + $2 >= 0")
				return productRow(id, 12, model.ProductStatusActive)
			},
		}
		p, err := NewProductRepositoryWithPool(mock).AdjustStock(context.Background(), id, 5)
		require.NoError(t, err)
		assert.Equal(t, 12, p.Quantity)
	})

	t.Run("would_go_negative", func(t *testing.T) {
		calls := 0
		mock := &mockPool{
			queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
				calls++
				if calls == 1 {
					return errRow(pgx.ErrNoRows)
				}
				return productRow(id, 1, model.ProductStatusActive)
			},
		}
		p, err := NewProductRepositoryWithPool(mock).AdjustStock(context.Background(), id, -5)
		assert.Nil(t, p)
		assert.True(t, errors.Is(err, service.ErrInsufficientStock))
	})

	t.Run("quantity_check_violation", func(t *testing.T) {
		mock := &mockPool{
			queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
				return errRow(&pgconn.PgError{Code: database.CodeCheckViolation, ConstraintName: "products_quantity_check"})
			},
		}
		p, err := NewProductRepositoryWithPool(mock).AdjustStock(context.Background(), id, -5)
		assert.Nil(t, p)
		assert.True(t, errors.Is(err, service.ErrInsufficientStock))
	})

	t.Run("unknown_product", func(t *testing.T) {
		mock := &mockPool{
			queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
				return errRow(pgx.ErrNoRows)
			},
		}
		_, err := NewProductRepositoryWithPool(mock).AdjustStock(context.Background(), id, 1)
		assert.True(t, errors.Is(err, service.ErrProductNotFound))
	})
}
