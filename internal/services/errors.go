package services

import (
	"errors"

	"shop/internal/repositories"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrCartEmpty          = errors.New("cart empty")
	ErrForbidden          = errors.New("access denied")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrConflict           = errors.New("already exists")

	// Re-exported so callers of the services need not import repositories.
	ErrNotFound          = repositories.ErrNotFound
	ErrInsufficientStock = repositories.ErrInsufficientStock
)
