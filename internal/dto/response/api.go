package response

import (
	"time"

	apperrors "github.com/jrjohn/arcana-account-adaptor/pkg/errors"
)

// ApiResponse is a generic response wrapper for all API responses
type ApiResponse[T any] struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Code      string    `json:"code,omitempty"`
	Data      T         `json:"data,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Account is the serialized account projection.
type Account = map[string]any

// Health is the body of the health and readiness probes.
type Health struct {
	Status string `json:"status"`
	Store  string `json:"store,omitempty"`
}

// NewSuccess creates a successful API response
func NewSuccess[T any](data T, message string) ApiResponse[T] {
	return ApiResponse[T]{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// NewSuccessWithData creates a successful API response with just data
func NewSuccessWithData[T any](data T) ApiResponse[T] {
	return ApiResponse[T]{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// NewError creates an error API response
func NewError[T any](message string) ApiResponse[T] {
	return ApiResponse[T]{
		Success:   false,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewAppError creates an error API response carrying the application error code
func NewAppError[T any](err *apperrors.AppError) ApiResponse[T] {
	return ApiResponse[T]{
		Success:   false,
		Message:   err.Message,
		Code:      err.Code,
		Timestamp: time.Now(),
	}
}

// WithRequestID sets the request ID echoed back to the client
func (r ApiResponse[T]) WithRequestID(id string) ApiResponse[T] {
	r.RequestID = id
	return r
}
