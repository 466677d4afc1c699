package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shop/internal/models"

	"github.com/google/uuid"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	carts    map[string]models.Cart // keyed by user ID
	products *MockProductRepository
	mu       sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
// Products are resolved from the given product repository.
func NewMockCartRepository(products *MockProductRepository) *MockCartRepository {
	return &MockCartRepository{
		carts:    make(map[string]models.Cart),
		products: products,
	}
}

// GetByUserID returns the user's cart with resolved products.
func (r *MockCartRepository) GetByUserID(_ context.Context, userID string) (*models.Cart, error) {
	r.mu.RLock()
	cart, ok := r.carts[userID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("cart for user %s not found: %w", userID, ErrNotFound)
	}

	items := make([]models.CartItem, len(cart.Items))
	for i, item := range cart.Items {
		item.Product = r.products.lookup(item.ProductID)
		items[i] = item
	}
	cart.Items = items
	return &cart, nil
}

// Create adds a new cart.
func (r *MockCartRepository) Create(_ context.Context, cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.carts[cart.UserID]; ok {
		return fmt.Errorf("cart for user %s already exists: %w", cart.UserID, ErrDuplicate)
	}
	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	now := time.Now()
	cart.CreatedAt = now
	cart.UpdatedAt = now
	items := make([]models.CartItem, len(cart.Items))
	for i, item := range cart.Items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.CartID = cart.ID
		item.CreatedAt = now
		item.Product = nil
		items[i] = item
		cart.Items[i] = item
	}
	stored := *cart
	stored.Items = items
	r.carts[cart.UserID] = stored
	return nil
}

// SetItem inserts the product line or overwrites its quantity.
func (r *MockCartRepository) SetItem(_ context.Context, cartID, productID string, qty int) error {
	return r.update(cartID, func(cart *models.Cart) {
		if idx := cart.Find(productID); idx > -1 {
			cart.Items[idx].Quantity = qty
			return
		}
		cart.Items = append(cart.Items, models.CartItem{
			ID:        uuid.New().String(),
			CartID:    cartID,
			ProductID: productID,
			Quantity:  qty,
			CreatedAt: time.Now(),
		})
	})
}

// RemoveItem filters the product line out of the cart.
func (r *MockCartRepository) RemoveItem(_ context.Context, cartID, productID string) error {
	return r.update(cartID, func(cart *models.Cart) {
		kept := make([]models.CartItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			if item.ProductID != productID {
				kept = append(kept, item)
			}
		}
		cart.Items = kept
	})
}

// ClearItems empties the cart.
func (r *MockCartRepository) ClearItems(_ context.Context, cartID string) error {
	return r.update(cartID, func(cart *models.Cart) {
		cart.Items = []models.CartItem{}
	})
}

func (r *MockCartRepository) update(cartID string, fn func(cart *models.Cart)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, cart := range r.carts {
		if cart.ID != cartID {
			continue
		}
		items := make([]models.CartItem, len(cart.Items))
		copy(items, cart.Items)
		cart.Items = items
		fn(&cart)
		cart.UpdatedAt = time.Now()
		r.carts[userID] = cart
		return nil
	}
	return fmt.Errorf("cart with ID %s not found: %w", cartID, ErrNotFound)
}
