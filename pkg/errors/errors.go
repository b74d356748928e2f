package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the closed set of order failure kinds. Every error
// produced by this module matches exactly one of these via errors.Is.
var (
	ErrNotFound         = errors.New("order not found")
	ErrCancelNotAllowed = errors.New("order cannot be cancelled")
	ErrReturnNotAllowed = errors.New("order cannot be returned")
	ErrValidation       = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrBackend          = errors.New("order request failed")
)

// Taxonomy codes surfaced to callers and logs.
const (
	CodeNotFound         = "ORDER_NOT_FOUND"
	CodeCancelNotAllowed = "CANCEL_NOT_ALLOWED"
	CodeReturnNotAllowed = "RETURN_NOT_ALLOWED"
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeOrder            = "ORDER_ERROR"
)

// FieldError is a single field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is a structured order failure carrying its taxonomy code, an
// optional set of field errors, and the upstream HTTP status when the
// failure originated from a backend response.
type AppError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
	Status  int          `json:"-"`
	Err     error        `json:"-"`
}

func (e *AppError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Code, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// OrderNotFound reports that no order exists for the given id.
func OrderNotFound(id string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("order %s not found", id),
		Err:     ErrNotFound,
	}
}

// CancelNotAllowed reports a cancellation rejected by the order rules.
func CancelNotAllowed(reason string) *AppError {
	return &AppError{
		Code:    CodeCancelNotAllowed,
		Message: reason,
		Err:     ErrCancelNotAllowed,
	}
}

// ReturnNotAllowed reports a return request rejected by the order rules.
func ReturnNotAllowed(reason string) *AppError {
	return &AppError{
		Code:    CodeReturnNotAllowed,
		Message: reason,
		Err:     ErrReturnNotAllowed,
	}
}

// Validation reports one or more invalid input fields.
func Validation(message string, fields ...FieldError) *AppError {
	if message == "" {
		message = "validation failed"
	}
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Fields:  fields,
		Err:     ErrValidation,
	}
}

// Unauthorized reports that the caller may not access the order resource.
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "you are not authorized to access this order"
	}
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Err:     ErrUnauthorized,
	}
}

// Backend reports any order operation failure that has no more specific
// kind: transport errors, malformed responses, unexpected statuses.
func Backend(message string, cause error) *AppError {
	if message == "" {
		message = "order request failed"
	}
	err := error(ErrBackend)
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrBackend, cause)
	}
	return &AppError{
		Code:    CodeOrder,
		Message: message,
		Err:     err,
	}
}

// FromStatus translates a backend HTTP status and its extracted message
// into the matching domain error. It is the single place where transport
// status codes are interpreted.
func FromStatus(status int, message string) *AppError {
	switch status {
	case http.StatusNotFound:
		if message == "" {
			message = "order not found"
		}
		return &AppError{Code: CodeNotFound, Message: message, Status: status, Err: ErrNotFound}
	case http.StatusUnauthorized, http.StatusForbidden:
		if message == "" {
			message = "you are not authorized to access this order"
		}
		return &AppError{Code: CodeUnauthorized, Message: message, Status: status, Err: ErrUnauthorized}
	case http.StatusBadRequest:
		if message == "" {
			message = "the order request was rejected"
		}
		return &AppError{Code: CodeValidation, Message: message, Status: status, Err: ErrValidation}
	default:
		if message == "" {
			message = fmt.Sprintf("order request failed with status %d", status)
		}
		return &AppError{Code: CodeOrder, Message: message, Status: status, Err: ErrBackend}
	}
}

// Code returns the taxonomy code carried by err, or CodeOrder when the
// error did not originate from this package.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeOrder
}

// Fields returns the field-level details when err carries them.
func Fields(err error) []FieldError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}

// Wrap adds context to an error while preserving errors.Is/As matching.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}
