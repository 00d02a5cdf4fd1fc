// Package controller holds the fiber handlers. Handlers parse input, call a
// service and return its error; ErrorHandler renders every failure.
package controller

import (
	"errors"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"estatehub_backend/internal/middleware"
	"estatehub_backend/internal/model"
	"estatehub_backend/pkg/apperror"
	"estatehub_backend/pkg/logging"
)

var logger = logging.NewLogger("controller")

// ErrorHandler renders service errors as {"error": ..., "fields": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	status := apperror.Status(err)
	body := fiber.Map{"error": apperror.Message(err)}

	var verr *apperror.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	if status >= fiber.StatusInternalServerError {
		logger.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(body)
}

var errInvalidInput = fiber.NewError(fiber.StatusBadRequest, "Invalid input")

func bind(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errInvalidInput
	}
	return nil
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// files returns the uploads under field, or nil for non-multipart bodies.
func files(c *fiber.Ctx, field string) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	return form.File[field]
}

func currentUser(c *fiber.Ctx) *model.User {
	return middleware.CurrentUser(c)
}
