package middleware

import (
	"context"
	"strings"

	"induction-portal/internal/domain"
	"induction-portal/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	SessionKey          = "session" // Key for storing the *domain.Session in fiber.Ctx locals
)

// TokenValidator turns a bearer token into a session.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*domain.Session, error)
}

// Protected requires a valid, unrevoked access token and stores the session in locals.
func Protected(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(AuthorizationHeader)
		if authHeader == "" {
			return domain.NewUnauthenticatedError("Authorization header is missing")
		}
		if !strings.HasPrefix(authHeader, BearerSchema) {
			return domain.NewUnauthenticatedError("Authorization scheme is not Bearer")
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerSchema))
		if tokenString == "" {
			return domain.NewUnauthenticatedError("Token is empty")
		}

		session, err := validator.ValidateToken(c.UserContext(), tokenString)
		if err != nil {
			logger.Get().Debug("Bearer token rejected", zap.Error(err), zap.String("path", c.Path()))
			return domain.NewError(domain.CodeUnauthenticated, "Invalid or expired token", err)
		}

		c.Locals(SessionKey, session)
		return c.Next()
	}
}

// AdminOnly must run after Protected.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := SessionFrom(c)
		if !session.Authenticated() {
			return domain.NewUnauthenticatedError("Authentication required")
		}
		if !session.IsAdmin() {
			logger.Get().Warn("Admin route denied", zap.String("userID", session.UserID), zap.String("path", c.Path()))
			return domain.NewForbiddenError("Admin access required")
		}
		return c.Next()
	}
}

// SessionFrom returns the session set by Protected, or nil.
func SessionFrom(c *fiber.Ctx) *domain.Session {
	session, _ := c.Locals(SessionKey).(*domain.Session)
	return session
}
