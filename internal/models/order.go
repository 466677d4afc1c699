package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
)

// Valid reports whether s is one of the four known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// OrderItem represents a single item within an order.
type OrderItem struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string          `json:"-" gorm:"type:varchar(36);index"`
	ProductID string          `json:"product_id" gorm:"type:varchar(36)"`
	Product   *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  int             `json:"qty"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"` // Price at the time of order
	Position  int             `json:"-"`
}

// Subtotal is quantity times the snapshotted unit price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order represents a customer order. Only Status changes after creation.
type Order struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string          `json:"user_id" gorm:"type:varchar(36);index"`
	User      *User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items     []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	Total     decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	Status    OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:pending;index"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SumItems returns Σ quantity × price over items.
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
