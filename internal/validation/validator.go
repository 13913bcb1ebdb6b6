package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"induction-portal/internal/domain"
	"induction-portal/internal/util"

	"github.com/go-playground/validator/v10"
)

// Validator provides request validation functionality
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance. Field errors are reported under
// their json (or query) names.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	_ = v.RegisterValidation("ulid", func(fl validator.FieldLevel) bool {
		return util.IsULID(fl.Field().String())
	})
	return &Validator{validate: v}
}

// Struct validates a request DTO. It returns nil or domain.ValidationErrors.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.NewInvalidInputError(err.Error())
	}
	out := make(domain.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, toValidationError(fe))
	}
	return out
}

// ID checks a path or query identifier.
func (v *Validator) ID(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError(field)}
	}
	if !util.IsULID(value) {
		return domain.ValidationErrors{domain.NewInvalidFormatError(field, value)}
	}
	return nil
}

func toValidationError(fe validator.FieldError) domain.ValidationError {
	field := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return domain.NewMissingFieldError(field)
	case "min", "max", "gte", "lte":
		return domain.ValidationError{
			Field:   field,
			Code:    "OUT_OF_RANGE",
			Message: fmt.Sprintf("value must satisfy %s=%s", fe.Tag(), fe.Param()),
			Value:   fe.Value(),
		}
	case "oneof":
		return domain.ValidationError{
			Field:   field,
			Code:    "INVALID_FORMAT",
			Message: fmt.Sprintf("value must be one of: %s", fe.Param()),
			Value:   fe.Value(),
		}
	default:
		return domain.NewInvalidFormatError(field, fe.Value())
	}
}

// fieldPath drops the root struct name: "SubmitAnswersRequest.answers[0].question_id" -> "answers[0].question_id".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
