package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"shop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps service errors to HTTP status codes. Zero means unmapped.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrCartEmpty):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrTokenExpired):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrInsufficientStock):
		return fiber.StatusConflict
	}
	return 0
}

// respondError writes known service errors as JSON and hands anything else to
// the app error handler, which answers 500.
func respondError(c *fiber.Ctx, logger *slog.Logger, op string, err error) error {
	status := statusFor(err)
	if status == 0 {
		return fmt.Errorf("%s: %w", op, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("request failed", "op", op, "status", status, "path", c.Path(), "error", err)
	return c.Status(status).JSON(fiber.Map{
		"message": err.Error(),
	})
}

// parseAndValidate decodes the JSON body into req and runs its validate tags.
// It writes the 400 response itself and returns false when the body is unusable.
func parseAndValidate(c *fiber.Ctx, validate *validator.Validate, req any) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return false, err
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return true, nil
}

// ErrorHandler is the last error boundary of the Fiber app.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		}
		return c.Status(code).JSON(fiber.Map{
			"message": err.Error(),
		})
	}
}
