package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"signdocs/internal/http/middleware"
	"signdocs/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string `json:"request_id,omitempty"`
	Error     string `json:"error"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking
// internal error details.
func writeError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     message,
	})
}

// ErrorHandler returns the single boundary mapper from operation errors to
// HTTP responses. Service errors are matched on their kind tag; everything
// else collapses to a generic status message.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var svcErr *service.Error
		if errors.As(err, &svcErr) {
			switch svcErr.Kind {
			case service.KindValidation:
				return writeError(c, fiber.StatusBadRequest, svcErr.Message)
			case service.KindAuth:
				return writeError(c, fiber.StatusUnauthorized, svcErr.Message)
			case service.KindNotFound:
				return writeError(c, fiber.StatusNotFound, svcErr.Message)
			case service.KindStorage:
				return writeError(c, fiber.StatusInternalServerError, "Internal server error")
			}
		}

		status := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "Bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "Resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "Method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			// Bodies above the server limit are rejected before the upload
			// handler runs, so its size check never sees them. Present the
			// same validation response either way.
			return writeError(c, fiber.StatusBadRequest, service.ErrFileTooLarge.Message)
		default:
			return writeError(c, status, "Internal server error")
		}
	}
}
