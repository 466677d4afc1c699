package repositories

import (
	"context"

	"shop/internal/models"
)

// CartRepository defines the interface for cart data access.
// Reads resolve each item's Product.
type CartRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	// SetItem inserts the product line or overwrites its quantity.
	SetItem(ctx context.Context, cartID, productID string, qty int) error
	RemoveItem(ctx context.Context, cartID, productID string) error
	ClearItems(ctx context.Context, cartID string) error
}
