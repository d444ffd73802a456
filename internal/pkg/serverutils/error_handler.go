package serverutils

import (
	"errors"

	"ai-docsearch-be/internal/pkg/logger"
	"ai-docsearch-be/pkg/rag"
	"ai-docsearch-be/pkg/rag/response"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns handler errors into JSON responses. Internal
// failures always surface as the generic notice; details go to the log.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status, message := classify(err)
		if status >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"error":  err.Error(),
			})
		}
		return ctx.Status(status).JSON(ErrorResponse(status, message))
	}
}

func classify(err error) (int, string) {
	var fe *fiber.Error
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return fiber.StatusBadRequest, ve.Error()
	case errors.Is(err, rag.ErrEmptyQuestion):
		return fiber.StatusBadRequest, err.Error()
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, rag.ErrConfiguration):
		return fiber.StatusInternalServerError, "service is not configured"
	default:
		return fiber.StatusInternalServerError, response.FailureNotice
	}
}
