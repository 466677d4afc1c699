package repositories

import "errors"

var (
	// ErrNotFound is wrapped by every lookup that matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientStock is returned when a stock decrement would go below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrDuplicate is returned when a unique column already holds the value.
	ErrDuplicate = errors.New("duplicate record")
)
