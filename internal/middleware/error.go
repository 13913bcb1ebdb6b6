package middleware

import (
	"context"
	"errors"
	"net/http"

	"induction-portal/internal/domain"
	"induction-portal/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ValidationErrorResponse represents validation error response
type ValidationErrorResponse struct {
	Code    string                   `json:"code"`
	Message string                   `json:"message"`
	Status  int                      `json:"status"`
	Errors  []domain.ValidationError `json:"errors"`
}

// ErrorHandler is the centralized fiber error handler. Handlers return errors and
// this maps them to a status and JSON body by code.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		log := logger.Get().With(zap.String("request_id", RequestIDFrom(c)), zap.String("path", c.Path()))

		var validationErrs domain.ValidationErrors
		if errors.As(err, &validationErrs) {
			log.Warn("Validation errors occurred", zap.Int("error_count", len(validationErrs)))
			return c.Status(http.StatusBadRequest).JSON(ValidationErrorResponse{
				Code:    string(domain.CodeValidation),
				Message: "Request validation failed",
				Status:  http.StatusBadRequest,
				Errors:  validationErrs,
			})
		}

		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			statusCode := StatusFor(domainErr.Code)

			fields := []zap.Field{
				zap.String("code", string(domainErr.Code)),
				zap.String("message", domainErr.Message),
				zap.Int("status", statusCode),
			}
			if domainErr.Cause != nil {
				fields = append(fields, zap.Error(domainErr.Cause))
			}
			if statusCode >= http.StatusInternalServerError {
				log.Error("Domain error occurred", fields...)
			} else {
				log.Info("Request rejected", fields...)
			}

			response := ErrorResponse{
				Code:    string(domainErr.Code),
				Message: domainErr.Message,
				Status:  statusCode,
			}
			if len(domainErr.Context) > 0 {
				response.Details = domainErr.Context
			}
			return c.Status(statusCode).JSON(response)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			log.Warn("Fiber error occurred",
				zap.Int("code", fiberErr.Code),
				zap.String("message", fiberErr.Message),
			)
			return c.Status(fiberErr.Code).JSON(ErrorResponse{
				Code:    "HTTP_ERROR",
				Message: fiberErr.Message,
				Status:  fiberErr.Code,
			})
		}

		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("Request timed out", zap.Error(err))
			return c.Status(http.StatusGatewayTimeout).JSON(ErrorResponse{
				Code:    "TIMEOUT",
				Message: "Request timed out",
				Status:  http.StatusGatewayTimeout,
			})
		}

		log.Error("Unknown error occurred", zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Code:    string(domain.CodeInternal),
			Message: "Internal server error",
			Status:  http.StatusInternalServerError,
		})
	}
}

// StatusFor maps a domain error code to its HTTP status.
func StatusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeInvalidInput, domain.CodeValidation, domain.CodeInvalidAnswerPayload:
		return http.StatusBadRequest
	case domain.CodeUnauthenticated, domain.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeConflict, domain.CodeNewChaptersDetected, domain.CodeSubmissionIncomplete,
		domain.CodeInvalidTransition:
		return http.StatusConflict
	case domain.CodeVideoNotCompleted, domain.CodeIncompleteAnswerSet, domain.CodeInductionNotAvailable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
