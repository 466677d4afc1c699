package repositories

import (
	"context"

	"shop/internal/models"
)

// OrderRepository defines the interface for order data access.
// Reads resolve each item's Product; GetAll also resolves the owning User.
type OrderRepository interface {
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByUserID(ctx context.Context, userID string) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
}
