package stripegw

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gw "github.com/tbeaudouin05/admin-checkout/api/services/checkout/gateway"
)

func TestCardParams_PrefersToken(t *testing.T) {
	p := cardParams(gw.CardInput{Token: "tok_visa", Number: "4242424242424242"})
	require.NotNil(t, p.Token)
	assert.Equal(t, "tok_visa", *p.Token)
	assert.Nil(t, p.Number)
}

func TestCardParams_RawCard(t *testing.T) {
	p := cardParams(gw.CardInput{Number: "4242424242424242", ExpMonth: "12", ExpYear: "2030", CVC: "123"})
	assert.Nil(t, p.Token)
	assert.Equal(t, "4242424242424242", *p.Number)
	assert.Equal(t, "12", *p.ExpMonth)
	assert.Equal(t, "2030", *p.ExpYear)
	assert.Equal(t, "123", *p.CVC)
}

func TestConfirmCardPayment_MalformedSecretNeverCallsStripe(t *testing.T) {
	_, err := New().ConfirmCardPayment(context.Background(), "not-a-secret", "pm_123")
	assert.ErrorIs(t, err, gw.ErrMalformedSecret)
}
