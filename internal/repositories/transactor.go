package repositories

import (
	"context"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Transactor runs fn so that every repository write made with the ctx it receives
// commits or rolls back together.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// GORMTransactor opens a GORM transaction and hands it to repositories through the context.
type GORMTransactor struct {
	db *gorm.DB
}

// NewGORMTransactor creates a new instance of GORMTransactor.
func NewGORMTransactor(db *gorm.DB) *GORMTransactor {
	return &GORMTransactor{db: db}
}

// WithinTransaction implements Transactor.
func (t *GORMTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or db bound to ctx.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

// connForUpdate is conn with the selected rows locked until the transaction in ctx ends.
// Outside a transaction it is plain conn.
func connForUpdate(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db.WithContext(ctx)
}

// MockTransactor serializes transactions for the in-memory repositories.
// Writes already applied when fn fails are not undone.
type MockTransactor struct {
	mu sync.Mutex
}

// NewMockTransactor creates a new instance of MockTransactor.
func NewMockTransactor() *MockTransactor {
	return &MockTransactor{}
}

// WithinTransaction implements Transactor.
func (t *MockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}
