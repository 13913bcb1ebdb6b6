package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"induction-portal/internal/domain"
	"induction-portal/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ManualTokenValidator is a hand-written TokenValidator for middleware tests.
type ManualTokenValidator struct {
	ValidateTokenFunc func(ctx context.Context, tokenString string) (*domain.Session, error)
}

func (m *ManualTokenValidator) ValidateToken(ctx context.Context, tokenString string) (*domain.Session, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, tokenString)
	}
	return nil, errors.New("ValidateTokenFunc not set on mock")
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
}

func decodeError(t *testing.T, body io.Reader) middleware.ErrorResponse {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestProtected(t *testing.T) {
	learner := &domain.Session{UserID: "user-1", Role: domain.RoleUser, TokenID: "jti-1", ExpiresAt: time.Now().Add(time.Hour)}

	tests := []struct {
		name           string
		authHeader     string
		validate       func(ctx context.Context, tokenString string) (*domain.Session, error)
		expectedStatus int
		expectedUserID string
	}{
		{
			name:           "No Auth Header",
			authHeader:     "",
			expectedStatus: fiber.StatusUnauthorized,
		},
		{
			name:           "Malformed Auth Header - No Bearer",
			authHeader:     "Basic some_token",
			expectedStatus: fiber.StatusUnauthorized,
		},
		{
			name:           "Empty Bearer Token",
			authHeader:     "Bearer ",
			expectedStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "Invalid Token",
			authHeader: "Bearer invalid_token",
			validate: func(ctx context.Context, tokenString string) (*domain.Session, error) {
				return nil, errors.New("invalid jwt token")
			},
			expectedStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "Valid Access Token",
			authHeader: "Bearer valid_access_token",
			validate: func(ctx context.Context, tokenString string) (*domain.Session, error) {
				if tokenString != "valid_access_token" {
					return nil, errors.New("unexpected token")
				}
				return learner, nil
			},
			expectedStatus: fiber.StatusOK,
			expectedUserID: "user-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			app.Get("/protected", middleware.Protected(&ManualTokenValidator{ValidateTokenFunc: tt.validate}), func(c *fiber.Ctx) error {
				return c.SendString(middleware.SessionFrom(c).UserID)
			})

			req := httptest.NewRequest("GET", "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set(middleware.AuthorizationHeader, tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus == fiber.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tt.expectedUserID, string(body))
				return
			}
			errResp := decodeError(t, resp.Body)
			assert.Equal(t, string(domain.CodeUnauthenticated), errResp.Code)
			assert.Equal(t, fiber.StatusUnauthorized, errResp.Status)
		})
	}
}

func TestAdminOnly(t *testing.T) {
	sessions := map[string]*domain.Session{
		"admin-token":   {UserID: "admin-1", Role: domain.RoleAdmin},
		"learner-token": {UserID: "user-1", Role: domain.RoleUser},
	}
	validator := &ManualTokenValidator{ValidateTokenFunc: func(ctx context.Context, tokenString string) (*domain.Session, error) {
		if s, ok := sessions[tokenString]; ok {
			return s, nil
		}
		return nil, errors.New("unknown token")
	}}

	app := newTestApp()
	app.Get("/admin", middleware.Protected(validator), middleware.AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set(middleware.AuthorizationHeader, "Bearer admin-token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set(middleware.AuthorizationHeader, "Bearer learner-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, string(domain.CodeForbidden), decodeError(t, resp.Body).Code)
}

func TestAdminOnly_WithoutSession(t *testing.T) {
	app := newTestApp()
	app.Get("/admin", middleware.AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
