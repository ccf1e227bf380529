package middleware

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// ErrorHandler renders errors as {"error": "..."}.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := http.StatusInternalServerError
		msg := "internal error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			msg = fe.Message
		} else {
			log.WithError(err).WithField("path", c.Path()).Error("unhandled error")
		}
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
}
