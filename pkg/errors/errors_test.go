package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoginFailedKeepsCause(t *testing.T) {
	cause := New(ErrorTypeAuth, 401, "unauthorized")
	err := LoginFailed("credential submission rejected", cause)

	assert.True(t, IsLoginFailed(err))
	assert.Equal(t, 401, err.Code)
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("authenticate: %w", err)
	assert.True(t, IsLoginFailed(wrapped))
	assert.Equal(t, ErrorTypeLoginFailed, TypeOf(wrapped))
}

func TestIsLoginFailedOnOtherErrors(t *testing.T) {
	assert.False(t, IsLoginFailed(errors.New("plain")))
	assert.False(t, IsLoginFailed(New(ErrorTypeNetwork, 0, "down")))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{418, ErrorTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, FromStatus(tt.status))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.True(t, IsRetryable(ErrorTypeServerError))
	assert.False(t, IsRetryable(ErrorTypeLoginFailed))
	assert.False(t, IsRetryable(ErrorTypeAuth))
}
