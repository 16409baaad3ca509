package serverutils

import (
	"errors"

	"market-assist-be/internal/assistant"
	"market-assist-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps domain errors onto HTTP statuses for the REST
// surface. The websocket handler does its own mapping onto protocol events.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var validationErr *assistant.ValidationError
		var rateLimitErr *assistant.RateLimitError
		var sessionErr *service.SessionError
		var fiberErr *fiber.Error

		switch {
		case errors.As(err, &validationErr):
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr.Error()})
		case errors.As(err, &rateLimitErr):
			return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "too many requests",
				"retry_after": int(rateLimitErr.RetryAfter.Seconds()),
			})
		case errors.As(err, &sessionErr):
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": sessionErr.Error()})
		case errors.As(err, &fiberErr):
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
