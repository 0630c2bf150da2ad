package handlers

import (
	"errors"
	"fmt"

	"campusmart/internal/apperrors"
	"campusmart/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var statusByKind = map[apperrors.Kind]int{
	apperrors.NotFound:     fiber.StatusNotFound,
	apperrors.Validation:   fiber.StatusBadRequest,
	apperrors.Conflict:     fiber.StatusConflict,
	apperrors.Unauthorized: fiber.StatusUnauthorized,
	apperrors.Mismatch:     fiber.StatusBadRequest,
	apperrors.Internal:     fiber.StatusInternalServerError,
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	if status, ok := statusByKind[apperrors.KindOf(err)]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// respondError writes err as {"message": ...}. Internal errors are logged and
// answered with a generic message.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	status := StatusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(fiber.Map{
		"message": apperrors.Message(err),
	})
}

// parseAndValidate decodes the request body into req and runs its validate
// tags. On failure the 400 response has already been written and handled is
// true.
func parseAndValidate(c *fiber.Ctx, v *validator.Validate, req any) (handled bool, err error) {
	if err := c.BodyParser(req); err != nil {
		return true, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if err := v.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return true, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid request body",
			})
		}
		errorMessages := make(map[string]string, len(validationErrors))
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return true, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return false, nil
}

// requireSelf rejects requests acting on behalf of a user other than the
// token's subject.
func requireSelf(c *fiber.Ctx, userID string) (handled bool, err error) {
	if userID == "" || userID != middleware.CurrentUserID(c) {
		return true, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}
	return false, nil
}

// ErrorHandler renders errors that escape handlers, including *fiber.Error
// from routing and panics recovered by the recover middleware.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
		}
		return respondError(c, log, err)
	}
}
