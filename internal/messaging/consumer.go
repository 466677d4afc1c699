package messaging

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"shop/internal/models"
)

// OrderEventLogger returns a RabbitMQ delivery handler that decodes order events and logs them.
// Malformed payloads are rejected so they are not redelivered.
func OrderEventLogger(logger *slog.Logger) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var event models.OrderEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("malformed order event: %w", err)
		}
		logger.Info("order event received",
			"type", event.Type,
			"order_id", event.OrderID,
			"user_id", event.UserID,
			"status", event.Status,
			"total", event.Total.String(),
		)
		return nil
	}
}
