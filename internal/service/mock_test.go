package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/sneaker-checkout/internal/model"
	"github.com/fairyhunter13/sneaker-checkout/pkg/database"
)

// mockProductRepository is a mock implementation of ProductRepositoryInterface.
type mockProductRepository struct {
	insertFn         func(ctx context.Context, p *model.Product) error
	getByIDFn        func(ctx context.Context, id uuid.UUID) (*model.Product, error)
	decrementStockFn func(ctx context.Context, tx database.TxQuerier, id uuid.UUID, qty int) error
	adjustStockFn    func(ctx context.Context, id uuid.UUID, delta int) (*model.Product, error)
}

func (m *mockProductRepository) Insert(ctx context.Context, p *model.Product) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, p)
	}
	return nil
}

func (m *mockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockProductRepository) DecrementStock(ctx context.Context, tx database.TxQuerier, id uuid.UUID, qty int) error {
	if m.decrementStockFn != nil {
		return m.decrementStockFn(ctx, tx, id, qty)
	}
	return nil
}

func (m *mockProductRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*model.Product, error) {
	if m.adjustStockFn != nil {
		return m.adjustStockFn(ctx, id, delta)
	}
	return nil, nil
}

// mockDiscountRepository is a mock implementation of DiscountRepositoryInterface.
type mockDiscountRepository struct {
	insertFn         func(ctx context.Context, d *model.Discount) error
	getByCodeFn      func(ctx context.Context, code string) (*model.Discount, error)
	incrementUsageFn func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error
}

func (m *mockDiscountRepository) Insert(ctx context.Context, d *model.Discount) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, d)
	}
	return nil
}

func (m *mockDiscountRepository) GetByCode(ctx context.Context, code string) (*model.Discount, error) {
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, code)
	}
	return nil, nil
}

func (m *mockDiscountRepository) IncrementUsage(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
	if m.incrementUsageFn != nil {
		return m.incrementUsageFn(ctx, tx, id)
	}
	return nil
}

// mockGiftCardRepository is a mock implementation of GiftCardRepositoryInterface.
type mockGiftCardRepository struct {
	insertFn    func(ctx context.Context, g *model.GiftCard) error
	getByCodeFn func(ctx context.Context, code string) (*model.GiftCard, error)
	debitFn     func(ctx context.Context, tx database.TxQuerier, id uuid.UUID, amount decimal.Decimal) error
}

func (m *mockGiftCardRepository) Insert(ctx context.Context, g *model.GiftCard) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, g)
	}
	return nil
}

func (m *mockGiftCardRepository) GetByCode(ctx context.Context, code string) (*model.GiftCard, error) {
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, code)
	}
	return nil, nil
}

func (m *mockGiftCardRepository) Debit(ctx context.Context, tx database.TxQuerier, id uuid.UUID, amount decimal.Decimal) error {
	if m.debitFn != nil {
		return m.debitFn(ctx, tx, id, amount)
	}
	return nil
}

// mockOrderRepository is a mock implementation of OrderRepositoryInterface.
type mockOrderRepository struct {
	insertFn       func(ctx context.Context, tx database.TxQuerier, o *model.Order) error
	getByNumberFn  func(ctx context.Context, number string) (*model.Order, error)
	updateStatusFn func(ctx context.Context, number string, from, to model.OrderStatus) error
}

func (m *mockOrderRepository) Insert(ctx context.Context, tx database.TxQuerier, o *model.Order) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, tx, o)
	}
	return nil
}

func (m *mockOrderRepository) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	if m.getByNumberFn != nil {
		return m.getByNumberFn(ctx, number)
	}
	return nil, nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, number string, from, to model.OrderStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, number, from, to)
	}
	return nil
}

// mockTx is a mock implementation of pgx.Tx for testing transactions.
type mockTx struct {
	commitFn   func(ctx context.Context) error
	rollbackFn func(ctx context.Context) error

	committed  bool
	rolledBack bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitFn != nil {
		if err := m.commitFn(ctx); err != nil {
			return err
		}
	}
	m.committed = true
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	if m.committed {
		return pgx.ErrTxClosed
	}
	m.rolledBack = true
	if m.rollbackFn != nil {
		return m.rollbackFn(ctx)
	}
	return nil
}

func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (m *mockTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *mockTx) Conn() *pgx.Conn {
	return nil
}

// mockTxBeginner is a mock implementation of TxBeginner that records every transaction it hands out.
type mockTxBeginner struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
	txs     []*mockTx
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx)
	}
	tx := &mockTx{}
	m.txs = append(m.txs, tx)
	return tx, nil
}
