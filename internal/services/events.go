package services

import (
	"context"

	"shop/internal/models"
)

// EventPublisher delivers order events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, event models.OrderEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, models.OrderEvent) error { return nil }
