package repositories

import (
	"context"

	"shop/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	// Update writes only the fields set in patch and returns the stored product.
	Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	// DecrementStock lowers stock by qty, refusing to go below zero.
	DecrementStock(ctx context.Context, id string, qty int) error
}
