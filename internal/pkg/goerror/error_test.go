package goerror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_StatusCode(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		wantType   Type
	}{
		{
			name:       "server error hides cause",
			err:        NewServer(errors.New("dial tcp: connection refused")),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Server error",
			wantType:   TypeServer,
		},
		{
			name:       "invalid input",
			err:        NewInvalidInput("Missing fields", nil),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Missing fields",
			wantType:   TypeValidation,
		},
		{
			name:       "invalid input default message",
			err:        NewInvalidInput("", nil),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Validation error",
			wantType:   TypeValidation,
		},
		{
			name:       "business invalid input",
			err:        NewBusiness("Invalid OTP", CodeInvalidInput),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid OTP",
			wantType:   TypeBusiness,
		},
		{
			name:       "invalid format",
			err:        NewInvalidFormat(),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid request body",
			wantType:   TypeValidation,
		},
		{
			name:       "too many requests",
			err:        NewBusiness("Too many requests", CodeTooManyRequest),
			wantStatus: http.StatusTooManyRequests,
			wantMsg:    "Too many requests",
			wantType:   TypeBusiness,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gerr *Error
			if !assert.ErrorAs(t, tt.err, &gerr) {
				return
			}

			assert.Equal(t, tt.wantStatus, gerr.StatusCode())
			assert.Equal(t, tt.wantMsg, gerr.Msg())
			assert.Equal(t, tt.wantType, gerr.Type())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewServer(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "boom", err.Error())
}

func TestError_Strings(t *testing.T) {
	err := NewBusiness("Too many requests", CodeTooManyRequest)

	var gerr *Error
	assert.ErrorAs(t, err, &gerr)
	assert.Equal(t, "Too many requests", gerr.Error())
	assert.Equal(t, `type=ERROR_TYPE_BUSINESS code=ERROR_CODE_TOO_MANY_REQUESTS msg="Too many requests" cause=<nil>`, gerr.String())
	assert.Equal(t, "ERROR_TYPE_UNKNOWN", Type(42).String())
	assert.Equal(t, "ERROR_CODE_INTERNAL", Code(42).String())
}
