package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"induction-portal/internal/domain"
	"induction-portal/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler_DomainErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   domain.ErrorCode
	}{
		{"not found", domain.NewNotFoundError("Submission x not found"), fiber.StatusNotFound, domain.CodeNotFound},
		{"video gate", domain.NewVideoNotCompletedError("ch-1"), fiber.StatusUnprocessableEntity, domain.CodeVideoNotCompleted},
		{"incomplete answers", domain.NewIncompleteAnswerSetError(2), fiber.StatusUnprocessableEntity, domain.CodeIncompleteAnswerSet},
		{"new chapters", domain.NewNewChaptersDetectedError([]string{"ch-3"}), fiber.StatusConflict, domain.CodeNewChaptersDetected},
		{"bad payload", domain.NewInvalidAnswerPayloadError("q-1", "expected a string"), fiber.StatusBadRequest, domain.CodeInvalidAnswerPayload},
		{"forbidden", domain.NewForbiddenError("Admin access required"), fiber.StatusForbidden, domain.CodeForbidden},
		{"bad credentials", domain.NewError(domain.CodeInvalidCredentials, "Invalid email or password", nil), fiber.StatusUnauthorized, domain.CodeInvalidCredentials},
		{"wrapped internal", fmtWrap(domain.NewInternalError("Failed to load submission", errors.New("db down"))), fiber.StatusInternalServerError, domain.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			body := decodeError(t, resp.Body)
			assert.Equal(t, string(tt.expectedCode), body.Code)
			assert.Equal(t, tt.expectedStatus, body.Status)
		})
	}
}

func fmtWrap(err error) error {
	return errors.Join(errors.New("handler"), err)
}

func TestErrorHandler_Details(t *testing.T) {
	app := newTestApp()
	app.Post("/complete", func(c *fiber.Ctx) error {
		return domain.NewNewChaptersDetectedError([]string{"ch-3"})
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/complete", nil))
	require.NoError(t, err)

	body := decodeError(t, resp.Body)
	assert.Equal(t, true, body.Details["has_new_chapters"])
	assert.Equal(t, []interface{}{"ch-3"}, body.Details["new_chapter_ids"])
}

func TestErrorHandler_ValidationErrors(t *testing.T) {
	app := newTestApp()
	app.Post("/", func(c *fiber.Ctx) error {
		return domain.ValidationErrors{domain.NewMissingFieldError("email")}
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body middleware.ValidationErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, string(domain.CodeValidation), body.Code)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "email", body.Errors[0].Field)
	assert.Equal(t, "MISSING_FIELD", body.Errors[0].Code)
}

func TestErrorHandler_FiberAndUnknownErrors(t *testing.T) {
	app := newTestApp()
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("kaboom") })

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "HTTP_ERROR", decodeError(t, resp.Body).Code)

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body := decodeError(t, resp.Body)
	assert.Equal(t, string(domain.CodeInternal), body.Code)
	assert.Equal(t, "Internal server error", body.Message)
}
