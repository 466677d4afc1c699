package handlers

import (
	"log/slog"

	"shop/internal/middleware"
	"shop/internal/models"
	"shop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service     *services.OrderService
	authService *services.AuthService
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, authService *services.AuthService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service:     service,
		authService: authService,
		validate:    validator.New(),
		logger:      logger,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders", middleware.AuthRequired(h.authService))
	orderRoutes.Post("/checkout", h.HandleCheckout)
	orderRoutes.Get("/my", h.HandleGetMyOrders)
	orderRoutes.Get("/", middleware.RequireRoles(models.RoleAdmin), h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Put("/:id/status", middleware.RequireRoles(models.RoleAdmin), h.HandleUpdateOrderStatus)
}

// HandleCheckout turns the caller's cart into a pending order.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	identity, _ := middleware.CurrentIdentity(c)
	order, err := h.service.Checkout(c.UserContext(), identity)
	if err != nil {
		return respondError(c, h.logger, "checkout", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order created",
		"order":   order,
	})
}

// HandleGetMyOrders returns the caller's orders, newest first.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	identity, _ := middleware.CurrentIdentity(c)
	orders, err := h.service.GetUserOrders(c.UserContext(), identity)
	if err != nil {
		return respondError(c, h.logger, "list my orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOrders retrieves all orders. Admin only.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	identity, _ := middleware.CurrentIdentity(c)
	orders, err := h.service.GetAllOrders(c.UserContext(), identity)
	if err != nil {
		return respondError(c, h.logger, "list orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order owned by the caller, or any order for admins.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	identity, _ := middleware.CurrentIdentity(c)
	order, err := h.service.GetOrderByID(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "get order", err)
	}
	return c.JSON(order)
}

// UpdateStatusRequest is the body of PUT /orders/:id/status.
type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required,oneof=pending processing shipped delivered"`
}

// HandleUpdateOrderStatus overwrites the status of an order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	identity, _ := middleware.CurrentIdentity(c)
	order, err := h.service.UpdateOrderStatus(c.UserContext(), identity, c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, h.logger, "update order status", err)
	}
	return c.JSON(order)
}
