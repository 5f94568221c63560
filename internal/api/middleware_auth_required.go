package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/dialytics/internal/models"
	"go.uber.org/zap"
)

const contextUserKey = "user"

func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	claims, err := handler.parseToken(bearerToken(c))
	if err != nil {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	user, err := handler.auth.FindByID(claims.UserID)
	if err != nil {
		handler.logger.Debug("token for unknown clinician", zap.Uint("user_id", claims.UserID))
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	c.Locals(contextUserKey, &user)
	return c.Next()
}

func currentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(contextUserKey).(*models.User)
	return user, ok && user != nil
}
