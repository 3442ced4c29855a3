package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/sneaker-checkout/internal/model"
)

// OrderService provides order lookup and status management.
type OrderService struct {
	orders OrderRepositoryInterface
	now    func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(orders OrderRepositoryInterface) *OrderService {
	return &OrderService{orders: orders, now: time.Now}
}

// GetByNumber retrieves an order with its line items.
// Returns ErrOrderNotFound if the order doesn't exist.
func (s *OrderService) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	o, err := s.orders.GetByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// UpdateStatus moves an order along its lifecycle.
// Returns:
//   - ErrOrderNotFound if the order doesn't exist
//   - ErrInvalidTransition if the lifecycle does not allow the move
//   - ErrConflict if the status changed between read and write
func (s *OrderService) UpdateStatus(ctx context.Context, number string, to model.OrderStatus) (*model.Order, error) {
	if !to.Valid() {
		return nil, ErrInvalidRequest
	}

	o, err := s.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	from := o.Status
	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
	}

	if err := s.orders.UpdateStatus(ctx, number, from, to); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	// Stock is not returned to the catalog on cancel or refund; restocking is an explicit inventory adjustment.
	log.Info().
		Str("order_number", number).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("order status updated")

	o.Status = to
	o.UpdatedAt = s.now()
	return o, nil
}
