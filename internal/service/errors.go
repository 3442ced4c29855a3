package service

import "errors"

var (
	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrEmptyCart is returned when a checkout has no line items
	ErrEmptyCart = errors.New("cart is empty")

	// ErrMissingCustomer is returned when a checkout has no customer email
	ErrMissingCustomer = errors.New("customer email is required")

	// ErrMissingAddress is returned when the shipping address is absent or incomplete
	ErrMissingAddress = errors.New("shipping address is required")

	// ErrProductNotFound is returned when a product does not exist or is not for sale
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when less stock is available than requested
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConflict is returned when a conditional update affected no rows
	ErrConflict = errors.New("concurrent update conflict")

	// ErrOrderNumberTaken is returned when a generated order number collides with an existing one
	ErrOrderNumberTaken = errors.New("order number already exists")

	// ErrPromotionRejected is returned in strict mode when a supplied code cannot be applied
	ErrPromotionRejected = errors.New("promotion rejected")

	// ErrOrderNotFound is returned when an order cannot be found
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidTransition is returned when an order status change is not allowed
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrDiscountExists is returned when creating a discount whose code is taken
	ErrDiscountExists = errors.New("discount code already exists")

	// ErrDiscountNotFound is returned when a discount cannot be found
	ErrDiscountNotFound = errors.New("discount not found")

	// ErrGiftCardExists is returned when creating a gift card whose code is taken
	ErrGiftCardExists = errors.New("gift card code already exists")

	// ErrGiftCardNotFound is returned when a gift card cannot be found
	ErrGiftCardNotFound = errors.New("gift card not found")
)
