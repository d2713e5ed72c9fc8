package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go"
)

//go:generate mockgen -destination=mock/mock_gateway.go -package=mockgw . PaymentGateway

// PaymentGateway abstracts the payment SDK calls the checkout flow needs.
// Methods return values (not pointers); an empty PaymentIntent (no ID) means
// the SDK reported nothing and must be treated as a failure by callers.
type PaymentGateway interface {
	CreatePaymentMethod(ctx context.Context, card CardInput, billing Billing) (stripe.PaymentMethod, error)
	ConfirmCardPayment(ctx context.Context, clientSecret string, paymentMethodID string) (stripe.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, intentID string) (stripe.PaymentIntent, error)
}

// CardInput is raw card input as captured by the card field. Either Token
// or the Number/Exp/CVC group is set. It only ever travels to the payment SDK.
type CardInput struct {
	Token    string `json:"token,omitempty"`
	Number   string `json:"number,omitempty"`
	ExpMonth string `json:"expMonth,omitempty"`
	ExpYear  string `json:"expYear,omitempty"`
	CVC      string `json:"cvc,omitempty"`
}

// Empty reports whether no card data was supplied at all.
func (c CardInput) Empty() bool {
	return c.Token == "" && c.Number == ""
}

// Billing carries the billing details attached to the payment method.
type Billing struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ErrMalformedSecret is returned when a client secret does not embed an intent id.
var ErrMalformedSecret = errors.New("malformed payment intent client secret")

const secretSeparator = "_secret_"

// IntentIDFromSecret extracts the payment intent id ("pi_123") from a client
// secret of the form "pi_123_secret_abc".
func IntentIDFromSecret(secret string) (string, error) {
	idx := strings.Index(secret, secretSeparator)
	if idx <= 0 {
		return "", fmt.Errorf("%w: %q", ErrMalformedSecret, secret)
	}
	return secret[:idx], nil
}

// ErrorMessage returns the user-facing message of a payment SDK error.
// Stripe card errors carry a human readable message that is shown verbatim.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return err.Error()
}

// OutcomeUnknown reports whether a confirmation failed without a definitive
// answer from the payment provider, so the intent may have been charged.
// Errors answered by Stripe are definitive, except its own api_error.
func OutcomeUnknown(err error) bool {
	if err == nil || errors.Is(err, ErrMalformedSecret) {
		return false
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.Type == stripe.ErrorTypeAPI
	}
	return true
}
