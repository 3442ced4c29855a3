package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrorKind is the machine readable classification of a failed checkout.
type ErrorKind string

const (
	KindEmptyCart         ErrorKind = "EMPTY_CART"
	KindMissingCustomer   ErrorKind = "MISSING_CUSTOMER"
	KindMissingAddress    ErrorKind = "MISSING_ADDRESS"
	KindProductNotFound   ErrorKind = "PRODUCT_NOT_FOUND"
	KindInsufficientStock ErrorKind = "INSUFFICIENT_STOCK"
	KindConflict          ErrorKind = "CONFLICT"
	KindPromotionRejected ErrorKind = "PROMOTION_REJECTED"
	KindServerError       ErrorKind = "SERVER_ERROR"
	KindInvalidRequest    ErrorKind = "INVALID_REQUEST"
)

// Stage is a step of the settlement state machine.
type Stage string

const (
	StageValidating Stage = "validating"
	StagePricing    Stage = "pricing"
	StageReserving  Stage = "reserving"
	StageCommitting Stage = "committing"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// SubStep names the mutation inside the commit phase that failed.
type SubStep string

const (
	SubStepNone               SubStep = ""
	SubStepDiscountUsage      SubStep = "discount_usage"
	SubStepGiftCardDebit      SubStep = "gift_card_debit"
	SubStepOrderInsert        SubStep = "order_insert"
	SubStepInventoryDecrement SubStep = "inventory_decrement"
)

// CheckoutError describes why a settlement ended in the failed state.
// Message is safe to show to customers; Err keeps the underlying cause.
type CheckoutError struct {
	Kind        ErrorKind
	Stage       Stage
	SubStep     SubStep
	ProductID   uuid.UUID
	ProductName string
	Message     string
	Err         error
}

func (e *CheckoutError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}

// Retryable reports whether running the settlement again may succeed.
func (e *CheckoutError) Retryable() bool {
	return e != nil && e.Kind == KindConflict
}

// AsCheckoutError unwraps err into a *CheckoutError.
func AsCheckoutError(err error) (*CheckoutError, bool) {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

func validationError(kind ErrorKind, sentinel error, msg string) *CheckoutError {
	return &CheckoutError{Kind: kind, Stage: StageValidating, Message: msg, Err: sentinel}
}

func productNotFoundError(id uuid.UUID) *CheckoutError {
	return &CheckoutError{
		Kind:      KindProductNotFound,
		Stage:     StageValidating,
		ProductID: id,
		Message:   fmt.Sprintf("product %s is not available", id),
		Err:       ErrProductNotFound,
	}
}

func insufficientStockError(id uuid.UUID, name string, available int) *CheckoutError {
	msg := fmt.Sprintf("only %d left of %s, please adjust the quantity", available, name)
	if available <= 0 {
		msg = fmt.Sprintf("%s is sold out", name)
	}
	return &CheckoutError{
		Kind:        KindInsufficientStock,
		Stage:       StageValidating,
		ProductID:   id,
		ProductName: name,
		Message:     msg,
		Err:         ErrInsufficientStock,
	}
}

func conflictError(stage Stage, step SubStep, cause error) *CheckoutError {
	return &CheckoutError{
		Kind:    KindConflict,
		Stage:   stage,
		SubStep: step,
		Message: "another order claimed the same stock or promotion, please try again",
		Err:     cause,
	}
}

func serverError(stage Stage, step SubStep, cause error) *CheckoutError {
	return &CheckoutError{
		Kind:    KindServerError,
		Stage:   stage,
		SubStep: step,
		Message: "checkout could not be completed",
		Err:     cause,
	}
}
