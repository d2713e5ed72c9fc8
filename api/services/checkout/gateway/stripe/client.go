package stripegw

import (
	"context"

	stripe "github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/paymentintent"
	"github.com/stripe/stripe-go/paymentmethod"

	gw "github.com/tbeaudouin05/admin-checkout/api/services/checkout/gateway"
)

// SetKey configures the Stripe SDK key once during bootstrap.
func SetKey(key string) { stripe.Key = key }

// client is the Stripe SDK-backed implementation of the gateway.
type client struct{}

// New returns a PaymentGateway backed by the official Stripe SDK.
func New() gw.PaymentGateway { return client{} }

func (client) CreatePaymentMethod(ctx context.Context, card gw.CardInput, billing gw.Billing) (stripe.PaymentMethod, error) {
	params := &stripe.PaymentMethodParams{
		Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: cardParams(card),
		BillingDetails: &stripe.BillingDetailsParams{
			Email: stripe.String(billing.Email),
			Name:  stripe.String(billing.Name),
		},
	}
	params.Context = ctx
	pm, err := paymentmethod.New(params)
	if err != nil {
		return stripe.PaymentMethod{}, err
	}
	if pm == nil {
		return stripe.PaymentMethod{}, nil
	}
	return *pm, nil
}

func (client) ConfirmCardPayment(ctx context.Context, clientSecret string, paymentMethodID string) (stripe.PaymentIntent, error) {
	intentID, err := gw.IntentIDFromSecret(clientSecret)
	if err != nil {
		return stripe.PaymentIntent{}, err
	}
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethodID),
	}
	params.Context = ctx
	pi, err := paymentintent.Confirm(intentID, params)
	if err != nil {
		return stripe.PaymentIntent{}, err
	}
	if pi == nil {
		return stripe.PaymentIntent{}, nil
	}
	return *pi, nil
}

func (client) GetPaymentIntent(ctx context.Context, intentID string) (stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(intentID, params)
	if err != nil {
		return stripe.PaymentIntent{}, err
	}
	if pi == nil {
		return stripe.PaymentIntent{}, nil
	}
	return *pi, nil
}

func cardParams(card gw.CardInput) *stripe.PaymentMethodCardParams {
	if card.Token != "" {
		return &stripe.PaymentMethodCardParams{Token: stripe.String(card.Token)}
	}
	return &stripe.PaymentMethodCardParams{
		Number:   stripe.String(card.Number),
		ExpMonth: stripe.String(card.ExpMonth),
		ExpYear:  stripe.String(card.ExpYear),
		CVC:      stripe.String(card.CVC),
	}
}
