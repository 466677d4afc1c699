package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the payload published to the message broker when an order changes.
type OrderEvent struct {
	Type      string          `json:"type"`
	OrderID   string          `json:"order_id"`
	UserID    string          `json:"user_id"`
	Status    OrderStatus     `json:"status"`
	Total     decimal.Decimal `json:"total"`
	Items     []OrderItem     `json:"items,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewOrderEvent builds an event of the given type from an order.
func NewOrderEvent(eventType string, order *Order) OrderEvent {
	items := make([]OrderItem, len(order.Items))
	for i, item := range order.Items {
		item.Product = nil
		items[i] = item
	}
	return OrderEvent{
		Type:      eventType,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Status:    order.Status,
		Total:     order.Total,
		Items:     items,
		Timestamp: time.Now().UTC(),
	}
}
