package handlers

import (
	"log/slog"

	"shop/internal/middleware"
	"shop/internal/models"
	"shop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service     *services.ProductService
	authService *services.AuthService
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, authService *services.AuthService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service:     service,
		authService: authService,
		validate:    validator.New(),
		logger:      logger,
	}
}

// RegisterRoutes registers the product routes. Reads are public, writes are admin only.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)

	admin := []fiber.Handler{middleware.AuthRequired(h.authService), middleware.RequireRoles(models.RoleAdmin)}
	productRoutes.Post("/", append(admin, h.HandleCreateProduct)...)
	productRoutes.Put("/:id", append(admin, h.HandleUpdateProduct)...)
	productRoutes.Delete("/:id", append(admin, h.HandleDeleteProduct)...)
}

// HandleGetProducts lists the catalog, optionally filtered by ?category=.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext(), models.ProductFilter{Category: c.Query("category")})
	if err != nil {
		return respondError(c, h.logger, "list products", err)
	}
	return c.JSON(products)
}

// HandleGetProductByID returns a single product.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "get product", err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a product from the supplied fields.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var patch models.ProductPatch
	if ok, err := parseAndValidate(c, h.validate, &patch); !ok {
		return err
	}

	product, err := h.service.CreateProduct(c.UserContext(), patch)
	if err != nil {
		return respondError(c, h.logger, "create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created",
		"product": product,
	})
}

// HandleUpdateProduct changes only the fields present in the body.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var patch models.ProductPatch
	if ok, err := parseAndValidate(c, h.validate, &patch); !ok {
		return err
	}

	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return respondError(c, h.logger, "update product", err)
	}
	return c.JSON(fiber.Map{
		"message": "Updated",
		"product": product,
	})
}

// HandleDeleteProduct removes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, h.logger, "delete product", err)
	}
	return c.JSON(fiber.Map{
		"message": "Deleted",
	})
}
