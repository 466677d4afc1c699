package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"shop/internal/models"
)

// RabbitClient is the part of rabbitmq.Client the publisher needs.
type RabbitClient interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// RabbitPublisher publishes order events to RabbitMQ with the event type as routing key.
type RabbitPublisher struct {
	client RabbitClient
}

// NewRabbitPublisher creates a new RabbitPublisher.
func NewRabbitPublisher(client RabbitClient) *RabbitPublisher {
	return &RabbitPublisher{client: client}
}

// Publish implements services.EventPublisher.
func (p *RabbitPublisher) Publish(ctx context.Context, event models.OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}
	return p.client.Publish(ctx, event.Type, body)
}
