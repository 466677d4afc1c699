package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"shop/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders   map[string]models.Order
	products *MockProductRepository
	users    *MockUserRepository
	mu       sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
// Products and users are resolved from the given repositories.
func NewMockOrderRepository(products *MockProductRepository, users *MockUserRepository) *MockOrderRepository {
	return &MockOrderRepository{
		orders:   make(map[string]models.Order),
		products: products,
		users:    users,
	}
}

// GetAll returns all orders, newest first.
func (r *MockOrderRepository) GetAll(_ context.Context) ([]models.Order, error) {
	return r.list(func(models.Order) bool { return true }, true), nil
}

// GetByUserID returns the orders owned by userID, newest first.
func (r *MockOrderRepository) GetByUserID(_ context.Context, userID string) ([]models.Order, error) {
	return r.list(func(o models.Order) bool { return o.UserID == userID }, false), nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	order, ok := r.orders[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("order with ID %s not found: %w", id, ErrNotFound)
	}
	order = r.resolve(order, true)
	return &order, nil
}

// Create adds a new order.
func (r *MockOrderRepository) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	items := make([]models.OrderItem, len(order.Items))
	for i, item := range order.Items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.OrderID = order.ID
		item.Position = i
		item.Product = nil
		items[i] = item
		order.Items[i] = item
	}
	stored := *order
	stored.Items = items
	stored.User = nil
	r.orders[order.ID] = stored
	return nil
}

// UpdateStatus updates the status of an order.
func (r *MockOrderRepository) UpdateStatus(_ context.Context, id string, status models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s not found for status update: %w", id, ErrNotFound)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

func (r *MockOrderRepository) list(keep func(models.Order) bool, withUser bool) []models.Order {
	r.mu.RLock()
	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if keep(order) {
			orderList = append(orderList, order)
		}
	}
	r.mu.RUnlock()

	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	for i := range orderList {
		orderList[i] = r.resolve(orderList[i], withUser)
	}
	return orderList
}

func (r *MockOrderRepository) resolve(order models.Order, withUser bool) models.Order {
	items := make([]models.OrderItem, len(order.Items))
	for i, item := range order.Items {
		if r.products != nil {
			item.Product = r.products.lookup(item.ProductID)
		}
		items[i] = item
	}
	order.Items = items
	if withUser && r.users != nil {
		order.User = r.users.lookup(order.UserID)
	}
	return order
}
