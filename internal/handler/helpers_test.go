package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"induction-portal/internal/config"
	"induction-portal/internal/database"
	"induction-portal/internal/dto"
	"induction-portal/internal/handler"
	"induction-portal/internal/middleware"
	"induction-portal/internal/repository"
	"induction-portal/internal/service"
	"induction-portal/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password"
)

// testServer is the whole API on a throwaway SQLite file without Redis or object storage.
type testServer struct {
	app      *fiber.App
	services *service.Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "api.db") + "?_pragma=foreign_keys(1)"
	db, err := sqlx.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db.DB, database.DriverSQLite))

	repos := repository.NewRepositories(db)
	services, err := service.NewServices(service.Dependencies{
		Users:        repos.Users,
		Inductions:   repos.Inductions,
		Submissions:  repos.Submissions,
		Answers:      repos.Answers,
		Videos:       repos.Videos,
		Transactions: repos.Transactions,
		JWT: config.JWTConfig{
			SecretKey:      "handler-tests-secret-key-0123456789abcdef",
			AccessTokenTTL: time.Hour,
			Issuer:         "induction-portal-test",
		},
	})
	require.NoError(t, err)

	_, err = services.Auth.EnsureAdmin(context.Background(), "Admin", adminEmail, adminPassword)
	require.NoError(t, err)

	validator := validation.NewValidator()
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	app.Use(middleware.RequestID())
	handler.RegisterRoutes(app.Group("/api"), handler.NewHandlers(services, validator), services.Auth, validator)

	return &testServer{app: app, services: services}
}

// do sends a JSON request; token may be empty.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(middleware.AuthorizationHeader, middleware.BearerSchema+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (s *testServer) register(t *testing.T, name, email string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{Name: name, Email: email, Password: "learner-password"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.TokenResponse](t, resp).AccessToken
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/auth/admin/login", "", dto.LoginRequest{Email: adminEmail, Password: adminPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[dto.TokenResponse](t, resp).AccessToken
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func intPtr(v int) *int { return &v }
