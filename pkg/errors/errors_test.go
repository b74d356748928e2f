package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Sentinel error identity ---

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrCancelNotAllowed, ErrReturnNotAllowed,
		ErrValidation, ErrUnauthorized, ErrBackend,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinels %d and %d should be distinct", i, j)
		}
	}
}

// --- AppError behavior ---

func TestAppError_ErrorString_WithStatus(t *testing.T) {
	appErr := &AppError{Code: CodeOrder, Message: "something broke", Status: 502}
	assert.Contains(t, appErr.Error(), "ORDER_ERROR")
	assert.Contains(t, appErr.Error(), "something broke")
	assert.Contains(t, appErr.Error(), "502")
}

func TestAppError_ErrorString_WithoutStatus(t *testing.T) {
	appErr := &AppError{Code: CodeNotFound, Message: "order not found"}
	assert.Equal(t, "ORDER_NOT_FOUND: order not found", appErr.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	appErr := &AppError{Code: CodeNotFound, Message: "nope", Err: ErrNotFound}
	assert.True(t, errors.Is(appErr, ErrNotFound))
}

func TestAppError_Unwrap_Nil(t *testing.T) {
	appErr := &AppError{Code: "TEST", Message: "test"}
	assert.Nil(t, appErr.Unwrap())
}

// --- Constructor functions ---

func TestOrderNotFound(t *testing.T) {
	err := OrderNotFound("ord-123")
	require.NotNil(t, err)
	assert.Equal(t, CodeNotFound, err.Code)
	assert.Contains(t, err.Message, "ord-123")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCancelNotAllowed(t *testing.T) {
	err := CancelNotAllowed("order has already shipped")
	require.NotNil(t, err)
	assert.Equal(t, CodeCancelNotAllowed, err.Code)
	assert.Equal(t, "order has already shipped", err.Message)
	assert.True(t, errors.Is(err, ErrCancelNotAllowed))
}

func TestReturnNotAllowed(t *testing.T) {
	err := ReturnNotAllowed("return window expired")
	require.NotNil(t, err)
	assert.Equal(t, CodeReturnNotAllowed, err.Code)
	assert.Equal(t, "return window expired", err.Message)
	assert.True(t, errors.Is(err, ErrReturnNotAllowed))
}

func TestValidation_WithFields(t *testing.T) {
	err := Validation("invalid shipping address",
		FieldError{Field: "shippingAddress.firstName", Message: "must be at least 2 characters"},
		FieldError{Field: "shippingAddress.street", Message: "must be at least 5 characters"},
	)
	require.NotNil(t, err)
	assert.Equal(t, CodeValidation, err.Code)
	assert.Len(t, err.Fields, 2)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestValidation_DefaultMessage(t *testing.T) {
	err := Validation("")
	assert.Equal(t, "validation failed", err.Message)
}

func TestUnauthorized(t *testing.T) {
	err := Unauthorized("session expired")
	require.NotNil(t, err)
	assert.Equal(t, CodeUnauthorized, err.Code)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestUnauthorized_DefaultMessage(t *testing.T) {
	err := Unauthorized("")
	assert.NotEmpty(t, err.Message)
}

func TestBackend_WrapsCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Backend("fetch orders", cause)
	require.NotNil(t, err)
	assert.Equal(t, CodeOrder, err.Code)
	assert.True(t, errors.Is(err, ErrBackend))
	assert.True(t, errors.Is(err, cause))
}

func TestBackend_NilCause(t *testing.T) {
	err := Backend("", nil)
	assert.Equal(t, CodeOrder, err.Code)
	assert.True(t, errors.Is(err, ErrBackend))
	assert.NotEmpty(t, err.Message)
}

// --- FromStatus mapping ---

func TestFromStatus_Mapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		code     string
		sentinel error
	}{
		{"not found", http.StatusNotFound, CodeNotFound, ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, CodeUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, CodeUnauthorized, ErrUnauthorized},
		{"bad request", http.StatusBadRequest, CodeValidation, ErrValidation},
		{"server error", http.StatusInternalServerError, CodeOrder, ErrBackend},
		{"bad gateway", http.StatusBadGateway, CodeOrder, ErrBackend},
		{"teapot", http.StatusTeapot, CodeOrder, ErrBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromStatus(tt.status, "server said so")
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.status, err.Status)
			assert.Equal(t, "server said so", err.Message)
			assert.True(t, errors.Is(err, tt.sentinel))
		})
	}
}

func TestFromStatus_DefaultMessages(t *testing.T) {
	for _, status := range []int{400, 401, 403, 404, 500} {
		err := FromStatus(status, "")
		assert.NotEmpty(t, err.Message, "status %d should have a fallback message", status)
	}
}

func TestFromStatus_BadRequestKeepsServerMessage(t *testing.T) {
	err := FromStatus(http.StatusBadRequest, "cart is empty")
	assert.Equal(t, "cart is empty", err.Message)
	assert.True(t, errors.Is(err, ErrValidation))
}

// --- Helpers ---

func TestCode(t *testing.T) {
	assert.Equal(t, CodeNotFound, Code(OrderNotFound("o1")))
	assert.Equal(t, CodeValidation, Code(fmt.Errorf("outer: %w", Validation("bad"))))
	assert.Equal(t, CodeOrder, Code(fmt.Errorf("plain failure")))
}

func TestFields(t *testing.T) {
	fe := FieldError{Field: "notes", Message: "must be at most 500 characters"}
	assert.Equal(t, []FieldError{fe}, Fields(Validation("bad", fe)))
	assert.Nil(t, Fields(fmt.Errorf("plain failure")))
}

func TestWrap(t *testing.T) {
	wrapped := Wrap(ErrNotFound, "load order")
	assert.Contains(t, wrapped.Error(), "load order")
	assert.True(t, errors.Is(wrapped, ErrNotFound))
}
