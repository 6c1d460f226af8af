package handlers

import (
	"errors"

	apperrors "github.com/ArmandoArias/ia-videodog/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// NewErrorHandler builds the fiber error handler mapping application
// errors to their HTTP status.
func NewErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var appErr *apperrors.AppError
		var fiberErr *fiber.Error
		if errors.As(err, &appErr) {
			code = appErr.Code
			message = appErr.Message
		} else if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		}

		log.WithFields(logrus.Fields{
			"request_id": c.Get("X-Request-ID"),
			"path":       c.Path(),
			"method":     c.Method(),
			"status":     code,
		}).WithError(err).Error("Request error")

		return c.Status(code).JSON(fiber.Map{
			"error":      message,
			"request_id": c.Get("X-Request-ID"),
		})
	}
}
