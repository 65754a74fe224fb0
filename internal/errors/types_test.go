package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		expected  string
	}{
		{ErrorTypeNotFound, "NOT_FOUND"},
		{ErrorTypeValidation, "VALIDATION_ERROR"},
		{ErrorTypeInvalidState, "INVALID_STATE"},
		{ErrorTypeStorageFailure, "STORAGE_FAILURE"},
		{ErrorTypeUnauthorized, "UNAUTHORIZED"},
		{ErrorTypeUnknown, "UNKNOWN"},
		{ErrorType(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.errorType.String())
		})
	}
}

func TestSigningError_IsMatchesByType(t *testing.T) {
	err := Validation("field %d: width must be positive", 2)

	assert.True(t, stderrors.Is(err, ErrValidation))
	assert.False(t, stderrors.Is(err, ErrNotFound))
	assert.True(t, IsValidation(err))

	wrapped := fmt.Errorf("save fields: %w", err)
	assert.True(t, IsValidation(wrapped))
	assert.Equal(t, ErrorTypeValidation, TypeOf(wrapped))
}

func TestSigningError_Error(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Storage(cause, "put %s", "requests/1/original.pdf")

	assert.Equal(t, "[STORAGE_FAILURE] put requests/1/original.pdf: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsStorage(err))

	withCtx := InvalidState("request already completed").WithContext("submit")
	assert.Equal(t, "[INVALID_STATE] request already completed: submit", withCtx.Error())
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(ErrorTypeStorageFailure, nil, "unused"))
}

func TestTypeOf_ForeignError(t *testing.T) {
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(nil))
}

func TestErrRequestNotFound_IsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrRequestNotFound))
	assert.Equal(t, "[NOT_FOUND] signature request not found", ErrRequestNotFound.Error())
}
