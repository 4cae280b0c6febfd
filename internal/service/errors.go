package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"storefront/internal/repository"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = repository.ErrNotFound
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = repository.ErrConflict
	ErrUnavailable  = repository.ErrUnavailable

	ErrStockExceeded     = errors.New("requested quantity exceeds available stock")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrNoAddress         = errors.New("no default address found, please provide an address")

	ErrInvalidCode  = errors.New("invalid coupon code")
	ErrExpired      = errors.New("coupon has expired or is not yet valid")
	ErrLimitReached = errors.New("coupon usage limit reached")
	ErrAlreadyUsed  = errors.New("coupon already used")

	ErrInvalidCredentials = errors.New("invalid credentials")
)

// InsufficientStockError первая позиция, не прошедшая проверку остатка при оформлении
type InsufficientStockError struct {
	ItemID      uuid.UUID
	Description string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s: requested %d, available %d", e.Description, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }
