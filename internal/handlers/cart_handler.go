package handlers

import (
	"log/slog"

	"shop/internal/middleware"
	"shop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the caller's cart.
type CartHandler struct {
	service     *services.CartService
	authService *services.AuthService
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService, authService *services.AuthService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service:     service,
		authService: authService,
		validate:    validator.New(),
		logger:      logger,
	}
}

// RegisterRoutes registers the cart routes. All of them require a token.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart", middleware.AuthRequired(h.authService))
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/add", h.HandleAddItem)
	cartRoutes.Post("/remove", h.HandleRemoveItem)
}

// AddItemRequest is the body of POST /cart/add.
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Qty       int    `json:"qty" validate:"required,gt=0"`
}

// RemoveItemRequest is the body of POST /cart/remove.
type RemoveItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

// HandleGetCart returns the caller's cart, empty if they have none yet.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	identity, _ := middleware.CurrentIdentity(c)
	cart, err := h.service.GetCart(c.UserContext(), identity.UserID)
	if err != nil {
		return respondError(c, h.logger, "get cart", err)
	}
	return c.JSON(cart)
}

// HandleAddItem sets the quantity of a product in the caller's cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	identity, _ := middleware.CurrentIdentity(c)
	cart, err := h.service.AddOrUpdateItem(c.UserContext(), identity.UserID, req.ProductID, req.Qty)
	if err != nil {
		return respondError(c, h.logger, "add cart item", err)
	}
	return c.JSON(cart)
}

// HandleRemoveItem drops a product from the caller's cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	var req RemoveItemRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	identity, _ := middleware.CurrentIdentity(c)
	cart, err := h.service.RemoveItem(c.UserContext(), identity.UserID, req.ProductID)
	if err != nil {
		return respondError(c, h.logger, "remove cart item", err)
	}
	return c.JSON(cart)
}
