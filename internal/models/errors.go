package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeQueryValidation = "QUERY_VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNotFound        = "NOT_FOUND"
	CodeRuleViolation   = "RULE_VIOLATION"
	CodeDependency      = "DEPENDENCY_ERROR"
	CodeInternal        = "INTERNAL_ERROR"
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewQueryValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeQueryValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewRuleViolation reports a business-rule failure. These are answered with
// HTTP 200 and a failure envelope rather than an error status.
func NewRuleViolation(message string) *AppError {
	return &AppError{
		Code:    CodeRuleViolation,
		Message: message,
	}
}

// NewDependencyError wraps a failure of a collaborator (resolution or storage) during a write.
func NewDependencyError(step string, err error) *AppError {
	return &AppError{
		Code:    CodeDependency,
		Message: "Failed to " + step,
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// ErrorCode returns the AppError code carried by err, or "" for foreign errors.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// StatusFor maps an error to the HTTP status used to report it.
func StatusFor(err error) int {
	switch ErrorCode(err) {
	case CodeValidation, CodeQueryValidation:
		return fiber.StatusBadRequest
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeRuleViolation:
		return fiber.StatusOK
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError writes err as a failure envelope with the given status.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	response := ErrorResponse{Success: false}

	var appErr *AppError
	if errors.As(err, &appErr) {
		msg := appErr.Message
		response.Message = &msg
		response.Code = appErr.Code
		// Internal details are only exposed for client-side failures.
		if appErr.Err != nil && status < fiber.StatusInternalServerError {
			response.Details = appErr.Err.Error()
		}
	} else {
		msg := err.Error()
		if status >= fiber.StatusInternalServerError {
			msg = "Internal server error"
		}
		response.Message = &msg
	}

	return c.Status(status).JSON(response)
}
