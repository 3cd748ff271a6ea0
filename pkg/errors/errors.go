package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError provides a structured error that can be rendered to API consumers.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	// Critical errors are reported to the alerting channel.
	Critical bool  `json:"-"`
	Details  any   `json:"details,omitempty"`
	Internal error `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}

	return e.Message
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is matches AppErrors by code so sentinel comparisons survive copies.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) || e == nil || other == nil {
		return false
	}
	return e.Code == other.Code
}

// WithInternal returns a copy of the AppError with an attached internal error.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Internal = err
	return &cpy
}

// WithMessage returns a copy of the AppError carrying a different message.
func (e *AppError) WithMessage(message string) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Message = message
	return &cpy
}

// Error codes shared by the API surface.
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
	CodeDatabase         = "DATABASE_ERROR"
	CodeExternalService  = "EXTERNAL_SERVICE_ERROR"
	CodeEnvConfiguration = "ENV_CONFIGURATION_ERROR"
	CodeRateLimit        = "RATE_LIMIT_EXCEEDED"
)

var (
	ErrBadRequest = &AppError{
		Code:       CodeBadRequest,
		Message:    "Invalid request",
		StatusCode: http.StatusBadRequest,
	}

	ErrValidation = &AppError{
		Code:       CodeValidation,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
	}

	// ErrUnauthorized is returned when an authenticated user is not a member of the resource.
	ErrUnauthorized = &AppError{
		Code:       CodeUnauthorized,
		Message:    "You are not authorized to access this resource.",
		StatusCode: http.StatusUnauthorized,
	}

	// ErrForbidden is returned when the request carries no valid session.
	ErrForbidden = &AppError{
		Code:       CodeForbidden,
		Message:    "Unauthorized. Please login to continue.",
		StatusCode: http.StatusForbidden,
	}

	ErrNotFound = &AppError{
		Code:       CodeNotFound,
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	ErrInternalServer = &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
		Critical:   true,
	}

	ErrDatabase = &AppError{
		Code:       CodeDatabase,
		Message:    "Database operation failed",
		StatusCode: http.StatusInternalServerError,
		Critical:   true,
	}

	ErrExternalService = &AppError{
		Code:       CodeExternalService,
		Message:    "External service error",
		StatusCode: http.StatusBadGateway,
		Critical:   true,
	}

	ErrEnvConfiguration = &AppError{
		Code:       CodeEnvConfiguration,
		Message:    "Environment configuration error",
		StatusCode: http.StatusInternalServerError,
		Critical:   true,
	}

	ErrRateLimit = &AppError{
		Code:       CodeRateLimit,
		Message:    "Too many requests, please slow down",
		StatusCode: http.StatusTooManyRequests,
	}
)

// New builds a new application error with the provided metadata.
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Critical:   statusCode >= http.StatusInternalServerError,
	}
}

// Wrap turns any error into an internal AppError while keeping the original error for logging.
func Wrap(err error, message string) *AppError {
	return ErrInternalServer.WithMessage(message).WithInternal(err)
}

// FromError converts a generic error into an AppError, defaulting to ErrInternalServer.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return ErrInternalServer.WithInternal(err)
}

// IsCritical reports whether err should trigger an operator alert.
// Errors that are not AppErrors are treated as critical.
func IsCritical(err error) bool {
	if err == nil {
		return false
	}
	return FromError(err).Critical
}

func NewBadRequest(message string) *AppError {
	return ErrBadRequest.WithMessage(message)
}

// NewValidation carries the full list of field issues in Details.
func NewValidation(message string, details any) *AppError {
	if message == "" {
		message = ErrValidation.Message
	}
	cpy := ErrValidation.WithMessage(message)
	cpy.Details = details
	return cpy
}

func NewNotFound(message string) *AppError {
	return ErrNotFound.WithMessage(message)
}

func NewUnauthorized(message string) *AppError {
	return ErrUnauthorized.WithMessage(message)
}

func NewForbidden(message string) *AppError {
	return ErrForbidden.WithMessage(message)
}

func NewDatabase(operation string, err error) *AppError {
	return ErrDatabase.WithMessage(fmt.Sprintf("Database operation failed: %s", operation)).WithInternal(err)
}

func NewExternalService(service string, err error) *AppError {
	return ErrExternalService.WithMessage(fmt.Sprintf("External service error (%s)", service)).WithInternal(err)
}

func NewEnvConfiguration(variable string) *AppError {
	return ErrEnvConfiguration.WithMessage(fmt.Sprintf("Missing or invalid configuration: %s", variable))
}
