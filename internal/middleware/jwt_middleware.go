package middleware

import (
	"errors"
	"strings"

	"shop/internal/models"
	"shop/internal/services"

	"github.com/gofiber/fiber/v2"
)

const identityKey = "identity"

// TokenValidator turns a bearer token into the caller identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (models.Identity, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)

		// Expected format: "Bearer <token>"
		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		tokenString = strings.TrimSpace(tokenString)
		if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "No token provided",
			})
		}

		identity, err := validator.ValidateToken(tokenString)
		if err != nil {
			message := "Invalid token"
			if errors.Is(err, services.ErrTokenExpired) {
				message = "Token expired"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": message,
			})
		}

		// Store the identity in Fiber context for subsequent handlers
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// RequireRoles rejects callers whose role is not in roles. It must run after AuthRequired.
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := CurrentIdentity(c)
		if !ok || !identity.HasRole(roles...) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Access denied",
			})
		}
		return c.Next()
	}
}

// CurrentIdentity returns the identity stored by AuthRequired.
func CurrentIdentity(c *fiber.Ctx) (models.Identity, bool) {
	identity, ok := c.Locals(identityKey).(models.Identity)
	return identity, ok
}
