package gateway

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	stripe "github.com/stripe/stripe-go"
)

func TestIntentIDFromSecret(t *testing.T) {
	id, err := IntentIDFromSecret("pi_3Nabc_secret_xyz")
	assert.NoError(t, err)
	assert.Equal(t, "pi_3Nabc", id)

	_, err = IntentIDFromSecret("pi_3Nabc")
	assert.ErrorIs(t, err, ErrMalformedSecret)

	_, err = IntentIDFromSecret("_secret_xyz")
	assert.ErrorIs(t, err, ErrMalformedSecret)
}

func TestErrorMessage_StripeErrorIsVerbatim(t *testing.T) {
	cardErr := &stripe.Error{Type: stripe.ErrorTypeCard, Msg: "Your card number is incomplete."}
	wrapped := fmt.Errorf("tokenize: %w", cardErr)
	assert.Equal(t, "Your card number is incomplete.", ErrorMessage(wrapped))
}

func TestErrorMessage_PlainError(t *testing.T) {
	assert.Equal(t, "boom", ErrorMessage(errors.New("boom")))
	assert.Equal(t, "", ErrorMessage(nil))
}

func TestCardInput_Empty(t *testing.T) {
	assert.True(t, CardInput{}.Empty())
	assert.False(t, CardInput{Token: "tok_visa"}.Empty())
	assert.False(t, CardInput{Number: "4242"}.Empty())
}

func TestOutcomeUnknown(t *testing.T) {
	assert.False(t, OutcomeUnknown(nil))
	assert.False(t, OutcomeUnknown(fmt.Errorf("confirm: %w", ErrMalformedSecret)))
	assert.False(t, OutcomeUnknown(&stripe.Error{Type: stripe.ErrorTypeCard, Msg: "Your card was declined."}))
	assert.False(t, OutcomeUnknown(&stripe.Error{Type: stripe.ErrorTypeInvalidRequest}))

	assert.True(t, OutcomeUnknown(&stripe.Error{Type: stripe.ErrorTypeAPI}))
	assert.True(t, OutcomeUnknown(context.Canceled))
	assert.True(t, OutcomeUnknown(fmt.Errorf("post: %w", context.DeadlineExceeded)))
	assert.True(t, OutcomeUnknown(errors.New("connection reset by peer")))
}
