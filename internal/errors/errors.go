// Package errors provides structured application errors. Service-layer code
// returns AppError values so handlers can produce consistent responses that
// never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid username or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound      = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateUsername = &AppError{Code: "DUPLICATE_USERNAME", Message: "A user with this username already exists", StatusCode: http.StatusConflict}
)

// Channel errors.
var (
	ErrChannelNotFound = &AppError{Code: "CHANNEL_NOT_FOUND", Message: "Channel not found", StatusCode: http.StatusNotFound}
)

// Redemption errors.
var (
	ErrRedemptionNotFound   = &AppError{Code: "REDEMPTION_NOT_FOUND", Message: "Redemption code not found", StatusCode: http.StatusNotFound}
	ErrRedemptionNameLength = &AppError{Code: "REDEMPTION_NAME_LENGTH", Message: "Redemption name must be 1 to 20 characters", StatusCode: http.StatusBadRequest}
	ErrRedemptionCount      = &AppError{Code: "REDEMPTION_COUNT", Message: "Redemption count must be between 1 and 100", StatusCode: http.StatusBadRequest}
	ErrRedemptionExpireTime = &AppError{Code: "REDEMPTION_EXPIRE_TIME", Message: "Expiry time must be in the future", StatusCode: http.StatusBadRequest}
)

// Option errors.
var (
	ErrOptionNotFound = &AppError{Code: "OPTION_NOT_FOUND", Message: "Option not found", StatusCode: http.StatusNotFound}
	ErrOptionValue    = &AppError{Code: "OPTION_VALUE", Message: "Invalid option value", StatusCode: http.StatusBadRequest}
)

// Operation log errors.
var (
	ErrTargetTimestampRequired = &AppError{Code: "TARGET_TIMESTAMP_REQUIRED", Message: "target timestamp is required", StatusCode: http.StatusBadRequest}
)
