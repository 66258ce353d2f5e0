package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"showcase/internal/models"

	"github.com/go-playground/validator/v10"
)

// Global validator instance for reuse
var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// Report JSON field names so messages match what clients sent.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Struct validates v against its `validate` tags and returns a
// VALIDATION_ERROR AppError describing the first failing field.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return models.NewValidationError("Invalid request body")
	}

	appErr := models.NewValidationError(describe(verrs[0]))
	appErr.Err = err
	return appErr
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if idx := strings.Index(field, "."); idx >= 0 {
		field = field[idx+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "username":
		return fmt.Sprintf("%s must be 3-30 letters, digits, '_' or '-', starting and ending with a letter or digit", field)
	case "password":
		return fmt.Sprintf("%s must be %d-%d characters with upper and lower case letters, a digit and a symbol",
			field, minPasswordLength, maxPasswordLength)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
