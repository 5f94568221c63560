package api

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/dialytics/internal/services"
	"go.uber.org/zap"
)

// statusClientClosedRequest marks a request whose context was cancelled
// before a result could be applied.
const statusClientClosedRequest = 499

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// respondServiceError maps service and collaborator errors onto HTTP statuses.
func (handler *Handler) respondServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrPatientNotFound):
		return apiError(c, fiber.StatusNotFound, "patient not found")
	case errors.Is(err, services.ErrInvalidPatientID):
		return apiError(c, fiber.StatusBadRequest, "invalid patient id")
	case errors.Is(err, services.ErrInvalidSeriesRange):
		return apiError(c, fiber.StatusBadRequest, "invalid range")
	case errors.Is(err, services.ErrPatientDataUnavailable):
		return apiError(c, fiber.StatusBadGateway, "patient data unavailable")
	case errors.Is(err, context.Canceled):
		return apiError(c, statusClientClosedRequest, "request cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		return apiError(c, fiber.StatusGatewayTimeout, "request timed out")
	default:
		handler.logger.Error("patient request failed",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return apiError(c, fiber.StatusInternalServerError, "internal error")
	}
}

// requestContext bounds the work done for one request.
func (handler *Handler) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), handler.requestTimeout)
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(c *fiber.Ctx, name string, fallback int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

func bearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
