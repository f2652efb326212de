package shipper_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tournevent/lalamove/pkg/shipper"
)

func TestShipperError_Error(t *testing.T) {
	err := shipper.NewShipperError("lalamove", "ERR_INVALID_FIELD", "Invalid phone number")
	assert.Equal(t, "lalamove error (ERR_INVALID_FIELD): Invalid phone number", err.Error())
}

func TestShipperError_ErrorWithCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := shipper.NewShipperError("lalamove", "HTTP_500", "API call failed").WithCause(cause)
	assert.Contains(t, err.Error(), "API call failed")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestShipperError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := shipper.NewShipperError("lalamove", "HTTP_500", "API call failed").WithCause(cause)
	assert.True(t, errors.Is(err, cause))
}

func TestShipperError_UnwrapKindAndCause(t *testing.T) {
	cause := errors.New("raw 404")
	err := shipper.NewShipperError("lalamove", "HTTP_404", "not found").
		WithKind(shipper.ErrOrderNotFound).
		WithCause(cause)

	assert.True(t, errors.Is(err, shipper.ErrOrderNotFound))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, shipper.ErrQuoteExpired))
}

func TestShipperError_Is(t *testing.T) {
	err1 := shipper.NewShipperError("lalamove", "HTTP_404", "Order missing")
	err2 := shipper.NewShipperError("mock", "HTTP_404", "Different message")

	assert.True(t, errors.Is(err1, err2))
}

func TestShipperError_IsNot(t *testing.T) {
	err1 := shipper.NewShipperError("lalamove", "HTTP_404", "Order missing")
	err2 := shipper.NewShipperError("lalamove", "HTTP_422", "Different error")

	assert.False(t, errors.Is(err1, err2))
}

func TestShipperError_WithStatusCode(t *testing.T) {
	err := shipper.NewShipperError("lalamove", "HTTP_401", "Unauthorized").WithStatusCode(401)
	assert.Equal(t, 401, err.StatusCode)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"retryable shipper error", shipper.NewShipperError("lalamove", "HTTP_503", "down").WithRetryable(true), true},
		{"non-retryable shipper error", shipper.NewShipperError("lalamove", "HTTP_422", "bad").WithRetryable(false), false},
		{"service unavailable", shipper.ErrServiceUnavailable, true},
		{"rate limit", shipper.ErrRateLimitExceeded, true},
		{"order not found", shipper.ErrOrderNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shipper.IsRetryable(tt.err))
		})
	}
}
