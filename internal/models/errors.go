package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeInvalidState     = "INVALID_STATE"
	CodeAlreadyReacted   = "ALREADY_REACTED"
	CodeNotFound         = "NOT_FOUND"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInternal         = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Allowed []string          `json:"allowed,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	// Fields holds one message per offending field for validation failures.
	Fields map[string]string
	// Allowed lists accepted values when a request used an unknown choice.
	Allowed []string
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

// NewFieldValidationError reports per-field violations. The summary message
// lists the offending fields in a stable order.
func NewFieldValidationError(fields map[string]string) *AppError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return &AppError{
		Code:    CodeValidation,
		Message: "Invalid fields: " + strings.Join(names, ", "),
		Fields:  fields,
	}
}

// NewChoiceError reports a value outside an enumerated set.
func NewChoiceError(message string, allowed []string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Allowed: allowed,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewPermissionDeniedError(message string) *AppError {
	return &AppError{
		Code:    CodePermissionDenied,
		Message: message,
	}
}

func NewInvalidStateError(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidState,
		Message: message,
	}
}

func NewAlreadyReactedError(action ReactionAction) *AppError {
	return &AppError{
		Code:    CodeAlreadyReacted,
		Message: fmt.Sprintf("You have already %sd this publication.", action),
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// StatusFor maps an error to the HTTP status it should be reported with.
func StatusFor(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeValidation, CodeAlreadyReacted:
		return fiber.StatusBadRequest
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodePermissionDenied:
		return fiber.StatusForbidden
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeInvalidState:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Fields:  appErr.Fields,
			Allowed: appErr.Allowed,
		}
		if appErr.Err != nil && appErr.Code != CodeInternal {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}

// Respond writes err using the status derived from its code.
func Respond(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status == fiber.StatusInternalServerError {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			err = NewInternalError(err)
		}
	}
	return RespondWithError(c, status, err)
}
