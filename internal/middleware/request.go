package middleware

import (
	"time"

	"induction-portal/internal/logger"
	"induction-portal/internal/util"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "requestID"
)

// RequestID reuses an incoming X-Request-ID or assigns a ULID, and echoes it back.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = util.NewULID()
		}
		c.Locals(RequestIDKey, id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}

func RequestIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDKey).(string)
	return id
}

// RequestLogger logs one line per request after the error handler has written the response.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()
		if err != nil {
			// Render now so the logged status is the one the client sees.
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		fields := []zap.Field{
			zap.String("request_id", RequestIDFrom(c)),
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get(fiber.HeaderUserAgent)),
		}
		if session := SessionFrom(c); session != nil {
			fields = append(fields, zap.String("userID", session.UserID))
		}
		logger.Get().Info("HTTP Request", fields...)
		return nil
	}
}
