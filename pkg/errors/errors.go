package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an adaptor error with an HTTP status for hosts that expose it.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
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

// Is lets errors.Is match two AppErrors by code.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Configuration error codes, raised while attaching the adaptor.
const (
	CodeMissingConnectionURI     = "MISSING_CONNECTION_URI"
	CodeMissingSchema            = "MISSING_SCHEMA"
	CodeMissingUserProfile       = "MISSING_USER_PROFILE"
	CodeMissingUsernameInProfile = "MISSING_USERNAME_IN_PROFILE"
	CodeMissingEmailInProfile    = "MISSING_EMAIL_IN_PROFILE"
)

// Request and store error codes.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeBadRequest         = "BAD_REQUEST"
	CodeConflict           = "CONFLICT"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeInvalidID          = "INVALID_ID"
	CodeUnknownField       = "UNKNOWN_FIELD"
	CodeProfileDisabled    = "PROFILE_MODE_DISABLED"
	CodeNotConnected       = "NOT_CONNECTED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Configuration errors.
var (
	ErrMissingConnectionURI     = &AppError{Code: CodeMissingConnectionURI, Message: "MissingConnectionURIError", Status: http.StatusInternalServerError}
	ErrMissingSchema            = &AppError{Code: CodeMissingSchema, Message: "MissingSchemaError", Status: http.StatusInternalServerError}
	ErrMissingUserProfile       = &AppError{Code: CodeMissingUserProfile, Message: "MissingUserProfileError", Status: http.StatusInternalServerError}
	ErrMissingUsernameInProfile = &AppError{Code: CodeMissingUsernameInProfile, Message: "MissingUsernameInProfileError", Status: http.StatusInternalServerError}
	ErrMissingEmailInProfile    = &AppError{Code: CodeMissingEmailInProfile, Message: "MissingEmailInProfileError", Status: http.StatusInternalServerError}
)

// Request and store errors.
var (
	ErrNotFound           = &AppError{Code: CodeNotFound, Message: "account not found", Status: http.StatusNotFound}
	ErrBadRequest         = &AppError{Code: CodeBadRequest, Message: "bad request", Status: http.StatusBadRequest}
	ErrConflict           = &AppError{Code: CodeConflict, Message: "account conflict", Status: http.StatusConflict}
	ErrInternalError      = &AppError{Code: CodeInternalError, Message: "internal server error", Status: http.StatusInternalServerError}
	ErrInvalidID          = &AppError{Code: CodeInvalidID, Message: "invalid account id", Status: http.StatusBadRequest}
	ErrUnknownField       = &AppError{Code: CodeUnknownField, Message: "unknown account field", Status: http.StatusBadRequest}
	ErrProfileDisabled    = &AppError{Code: CodeProfileDisabled, Message: "profile mode is disabled", Status: http.StatusBadRequest}
	ErrNotConnected       = &AppError{Code: CodeNotConnected, Message: "store is not connected", Status: http.StatusServiceUnavailable}
	ErrServiceUnavailable = &AppError{Code: CodeServiceUnavailable, Message: "service unavailable", Status: http.StatusServiceUnavailable}
)

var configCodes = map[string]struct{}{
	CodeMissingConnectionURI:     {},
	CodeMissingSchema:            {},
	CodeMissingUserProfile:       {},
	CodeMissingUsernameInProfile: {},
	CodeMissingEmailInProfile:    {},
}

// Wrap wraps an error with an AppError
func Wrap(err error, appErr *AppError) *AppError {
	return &AppError{
		Code:    appErr.Code,
		Message: appErr.Message,
		Status:  appErr.Status,
		Err:     err,
	}
}

// WithMessage returns a new AppError with a custom message
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Status:  e.Status,
		Err:     e.Err,
	}
}

// WithError returns a new AppError with a wrapped error
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Status:  e.Status,
		Err:     err,
	}
}

// WithDetail returns a copy whose message carries a formatted detail suffix.
func (e *AppError) WithDetail(format string, args ...any) *AppError {
	return e.WithMessage(e.Message + ": " + fmt.Sprintf(format, args...))
}

// Is checks if the error is a specific AppError
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

// IsConfigError reports whether err was raised by option resolution or schema augmentation.
func IsConfigError(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	_, ok := configCodes[appErr.Code]
	return ok
}

// GetStatus returns the HTTP status from an error
func GetStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
