package server

import (
	"log/slog"

	"photoshare/internal/middleware"
	"photoshare/internal/models"

	"github.com/gofiber/fiber/v2"
)

// respondError writes err with the status its taxonomy code maps to. Internal
// failures are logged here and reach the client without details.
func respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()))
	}
	return models.RespondWithError(c, status, err)
}

// respondMessage writes a bare {message} body, as the web client expects for legacy paths.
func respondMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(models.ErrorResponse{Message: message})
}

// respondEmpty writes a 200 with no body. SendStatus would fill in "OK".
func respondEmpty(c *fiber.Ctx) error {
	c.Status(fiber.StatusOK)
	return nil
}

// currentUserID returns the caller set by AuthRequired.
func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

// respondInternal logs err and writes message with a 500 status.
func respondInternal(c *fiber.Ctx, message string, err error) error {
	middleware.Logger.ErrorContext(c.UserContext(), message,
		slog.String("path", c.Path()),
		slog.String("error", err.Error()))
	return respondMessage(c, fiber.StatusInternalServerError, message)
}
