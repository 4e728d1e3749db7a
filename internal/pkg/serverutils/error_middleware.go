package serverutils

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps AppError codes (and raw context errors) onto
// HTTP statuses so controllers can just `return err`.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		if appErr, ok := AsAppError(err); ok {
			return ctx.Status(statusFor(appErr.Code)).JSON(ErrorResponse(appErr.Message))
		}

		if errors.Is(err, context.DeadlineExceeded) {
			return ctx.Status(fiber.StatusGatewayTimeout).JSON(ErrorResponse("request timed out"))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("internal server error"))
	}
}

func statusFor(code ErrorCode) int {
	switch code {
	case CodeBadRequest:
		return fiber.StatusBadRequest
	case CodeNotFound, CodeSessionExpired:
		return fiber.StatusNotFound
	case CodeEmptyCorpus, CodeSelectionFailed:
		return fiber.StatusServiceUnavailable
	case CodeTimeout:
		return fiber.StatusGatewayTimeout
	case CodeUpstream:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
