package middleware

import (
	"induction-portal/internal/domain"
	"induction-portal/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ValidationMiddleware rejects malformed identifiers before they reach a handler.
type ValidationMiddleware struct {
	validator *validation.Validator
}

func NewValidationMiddleware(v *validation.Validator) *ValidationMiddleware {
	if v == nil {
		v = validation.NewValidator()
	}
	return &ValidationMiddleware{validator: v}
}

// ValidateIDParams checks that every named path parameter is a ULID.
func (vm *ValidationMiddleware) ValidateIDParams(names ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var errs domain.ValidationErrors
		for _, name := range names {
			if err := vm.validator.ID(name, c.Params(name)); err != nil {
				errs = append(errs, err.(domain.ValidationErrors)...)
			}
		}
		if len(errs) > 0 {
			return errs
		}
		return c.Next()
	}
}

// ValidateIDQuery checks a required query identifier such as submission_id.
func (vm *ValidationMiddleware) ValidateIDQuery(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := vm.validator.ID(name, c.Query(name)); err != nil {
			return err
		}
		return c.Next()
	}
}
