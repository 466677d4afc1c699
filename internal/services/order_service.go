package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"shop/internal/models"
	"shop/internal/repositories"
	"shop/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("shop/services")

// OrderService handles checkout and order queries.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
	tx          repositories.Transactor
	publisher   EventPublisher
	metrics     *telemetry.ShopMetrics
	logger      *slog.Logger
}

// NewOrderService creates a new OrderService. publisher, metrics and logger may be nil.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	cartRepo repositories.CartRepository,
	productRepo repositories.ProductRepository,
	tx repositories.Transactor,
	publisher EventPublisher,
	metrics *telemetry.ShopMetrics,
	logger *slog.Logger,
) *OrderService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		tx:          tx,
		publisher:   publisher,
		metrics:     metrics,
		logger:      logger,
	}
}

// Checkout turns the caller's cart into a pending order.
//
// Prices are snapshotted from the products as they are now and the total is
// fixed at creation. Stock decrements, order insert and cart clearing commit
// together; a decrement that would take stock below zero aborts the checkout
// with ErrInsufficientStock.
func (s *OrderService) Checkout(ctx context.Context, caller models.Identity) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.Checkout",
		trace.WithAttributes(attribute.String("user.id", caller.UserID)))
	defer span.End()

	var order *models.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.cartRepo.GetByUserID(ctx, caller.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrCartEmpty
			}
			return err
		}
		if cart.IsEmpty() {
			return ErrCartEmpty
		}

		items, err := snapshotItems(cart)
		if err != nil {
			return err
		}

		for _, item := range items {
			if err := s.productRepo.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		order = &models.Order{
			UserID: caller.UserID,
			Items:  items,
			Total:  models.SumItems(items),
			Status: models.OrderStatusPending,
		}
		if err := s.orderRepo.Create(ctx, order); err != nil {
			return err
		}
		return s.cartRepo.ClearItems(ctx, cart.ID)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.CheckoutFailed(ctx, failureReason(err))
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order.id", order.ID),
		attribute.String("order.total", order.Total.String()),
	)
	s.metrics.OrderCreated(ctx, order)
	s.publish(ctx, models.EventOrderCreated, order)
	s.logger.Info("order created", "order_id", order.ID, "user_id", order.UserID, "total", order.Total.String())
	return order, nil
}

// snapshotItems copies product reference, quantity and the current unit price of each cart item.
func snapshotItems(cart *models.Cart) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, ci := range cart.Items {
		if ci.Product == nil {
			return nil, fmt.Errorf("product %s in cart no longer exists: %w", ci.ProductID, ErrNotFound)
		}
		items = append(items, models.OrderItem{
			ProductID: ci.ProductID,
			Quantity:  ci.Quantity,
			Price:     ci.Product.Price,
		})
	}
	return items, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrCartEmpty):
		return "cart_empty"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

// GetUserOrders returns the caller's own orders, newest first.
func (s *OrderService) GetUserOrders(ctx context.Context, caller models.Identity) ([]models.Order, error) {
	return s.orderRepo.GetByUserID(ctx, caller.UserID)
}

// GetAllOrders returns every order. Admin only.
func (s *OrderService) GetAllOrders(ctx context.Context, caller models.Identity) ([]models.Order, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.orderRepo.GetAll(ctx)
}

// GetOrderByID returns one order visible to the caller. Orders of other users are reported as not found.
func (s *OrderService) GetOrderByID(ctx context.Context, caller models.Identity, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, fmt.Errorf("order with ID %s not found: %w", id, ErrNotFound)
	}
	if !caller.IsAdmin() {
		order.User = nil
	}
	return order, nil
}

// UpdateOrderStatus overwrites the status of an order. Admin only; any transition is allowed.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, caller models.Identity, id string, status models.OrderStatus) (*models.Order, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid order status: %s: %w", status, ErrValidation)
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.metrics.StatusChanged(ctx, status)
	s.publish(ctx, models.EventOrderStatusChanged, order)
	return order, nil
}

// publish sends an order event. Delivery failures are logged and never fail the request.
func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order) {
	if err := s.publisher.Publish(ctx, models.NewOrderEvent(eventType, order)); err != nil {
		s.logger.Warn("failed to publish order event", "type", eventType, "order_id", order.ID, "error", err)
	}
}
