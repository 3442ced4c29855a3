package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/sneaker-checkout/internal/model"
	"github.com/fairyhunter13/sneaker-checkout/internal/service"
	"github.com/fairyhunter13/sneaker-checkout/pkg/database"
)

const orderNumberConstraint = "orders_order_number_key"

// OrderRepository provides data access for orders and their line items using pgx.
type OrderRepository struct {
	pool PoolInterface
}

// NewOrderRepository creates a new OrderRepository with the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// NewOrderRepositoryWithPool creates a new OrderRepository with a custom pool interface.
// This is primarily used for testing.
func NewOrderRepositoryWithPool(pool PoolInterface) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Insert writes the order header and its line item snapshots within a transaction.
// Returns service.ErrOrderNumberTaken if the generated order number already exists.
func (r *OrderRepository) Insert(ctx context.Context, tx database.TxQuerier, o *model.Order) error {
	err := tx.QueryRow(ctx,
		`INSERT INTO orders (
			id, order_number, customer_email, customer_name, customer_phone, shipping_address,
			subtotal, discount_amount, gift_card_amount, shipping_cost, total,
			status, payment_method, discount_code, gift_card_code
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`,
		o.ID, o.OrderNumber, o.CustomerEmail, o.CustomerName, o.CustomerPhone, o.ShippingAddress,
		o.Subtotal, o.DiscountAmount, o.GiftCardAmount, o.ShippingCost, o.Total,
		o.Status, o.PaymentMethod, o.DiscountCode, o.GiftCardCode,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, orderNumberConstraint) {
			return service.ErrOrderNumberTaken
		}
		return fmt.Errorf("insert order %s: %w", o.OrderNumber, err)
	}

	for _, item := range o.Items {
		_, err := tx.Exec(ctx,
			`INSERT INTO order_items (order_id, product_id, product_name, size, quantity, unit_price)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, item.ProductID, item.ProductName, item.Size, item.Quantity, item.UnitPrice)
		if err != nil {
			return fmt.Errorf("insert order item %s: %w", item.ProductID, err)
		}
	}
	return nil
}

// GetByNumber retrieves an order with its line items.
// Returns nil, nil if the order is not found.
func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	query := `SELECT id, order_number, customer_email, customer_name, customer_phone, shipping_address,
			subtotal, discount_amount, gift_card_amount, shipping_cost, total,
			status, payment_method, discount_code, gift_card_code, created_at, updated_at
		FROM orders WHERE order_number = $1`

	var o model.Order
	err := r.pool.QueryRow(ctx, query, number).Scan(
		&o.ID,
		&o.OrderNumber,
		&o.CustomerEmail,
		&o.CustomerName,
		&o.CustomerPhone,
		&o.ShippingAddress,
		&o.Subtotal,
		&o.DiscountAmount,
		&o.GiftCardAmount,
		&o.ShippingCost,
		&o.Total,
		&o.Status,
		&o.PaymentMethod,
		&o.DiscountCode,
		&o.GiftCardCode,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order %s: %w", number, err)
	}

	items, err := r.getItems(ctx, o)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *OrderRepository) getItems(ctx context.Context, o model.Order) ([]model.OrderLineItem, error) {
	query := `SELECT product_id, product_name, size, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, o.ID)
	if err != nil {
		return nil, fmt.Errorf("get items for order %s: %w", o.OrderNumber, err)
	}
	defer rows.Close()

	items := []model.OrderLineItem{}
	for rows.Next() {
		var item model.OrderLineItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Size, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items rows: %w", err)
	}
	return items, nil
}

// UpdateStatus moves an order from one status to another.
// Returns service.ErrConflict if the order is no longer in the from status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, number string, from, to model.OrderStatus) error {
	query := `UPDATE orders SET status = $3, updated_at = now()
		WHERE order_number = $1 AND status = $2`

	tag, err := r.pool.Exec(ctx, query, number, from, to)
	if err != nil {
		return fmt.Errorf("update status for order %s: %w", number, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrConflict
	}
	return nil
}
