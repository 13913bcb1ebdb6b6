package handler

import (
	"induction-portal/internal/domain"
	"induction-portal/internal/logger"
	"induction-portal/internal/middleware"
	"induction-portal/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// parseBody decodes the JSON body into dst and validates it.
func parseBody(c *fiber.Ctx, v *validation.Validator, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		logger.Get().Warn("Failed to parse request body", zap.String("path", c.Path()), zap.Error(err))
		return domain.NewInvalidInputError("Invalid request body")
	}
	return v.Struct(dst)
}

// caller is the session set by middleware.Protected.
func caller(c *fiber.Ctx) *domain.Session {
	return middleware.SessionFrom(c)
}
