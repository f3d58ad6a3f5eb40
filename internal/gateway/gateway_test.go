package gateway

import (
	"errors"
	"testing"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stretchr/testify/assert"
)

func TestClassify_StripeErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{"card declined", &stripe.Error{Err: &stripe.CardError{}, Msg: "Your card was declined"}, KindCardDeclined},
		{"rate limited", &stripe.Error{Err: &stripe.RateLimitError{}, Msg: "too many requests"}, KindRateLimited},
		{"invalid request", &stripe.Error{Err: &stripe.InvalidRequestError{}, Msg: "missing amount"}, KindInvalidRequest},
		{"auth failed", &stripe.Error{Err: &stripe.AuthenticationError{}, Msg: "invalid api key"}, KindAuthFailed},
		{"api connection", &stripe.Error{Err: &stripe.APIConnectionError{}, Msg: "connection reset"}, KindNetwork},
		{"other stripe error", &stripe.Error{Msg: "unknown"}, KindGatewayOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gwErr := classify(tt.err)
			assert.Equal(t, tt.kind, gwErr.Kind)
		})
	}
}

func TestClassify_NonStripeErrorIsNetwork(t *testing.T) {
	// Транспортный сбой до ответа шлюза
	gwErr := classify(errors.New("dial tcp: connection refused"))
	assert.Equal(t, KindNetwork, gwErr.Kind)
}

func TestError_UnwrapKeepsCause(t *testing.T) {
	cause := errors.New("underlying")
	gwErr := NewError(KindGatewayOther, "wrapped", cause)
	assert.ErrorIs(t, gwErr, cause)

	var target *Error
	assert.True(t, errors.As(error(gwErr), &target))
	assert.Equal(t, "wrapped", target.Message)
}
