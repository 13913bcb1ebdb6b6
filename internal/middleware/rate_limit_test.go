package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPRateLimiter_RejectsOverLimit(t *testing.T) {
	limiter := NewIPRateLimiter(2, time.Minute)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/", limiter.Handler(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestIPRateLimiter_RefillsOverTime(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(1, time.Second)
	limiter.now = func() time.Time { return now }

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/", limiter.Handler(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	now = now.Add(2 * time.Second)
	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestIPRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(5, time.Minute)
	limiter.now = func() time.Time { return now }

	limiter.get("10.0.0.1")
	now = now.Add(limiterIdleTTL / 2)
	limiter.get("10.0.0.2")
	now = now.Add(limiterIdleTTL/2 + time.Second)

	assert.Equal(t, 1, limiter.Sweep())
	assert.Len(t, limiter.visitors, 1)
	assert.Contains(t, limiter.visitors, "10.0.0.2")
}
