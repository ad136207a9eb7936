package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMercadoPagoGateway_MockMode(t *testing.T) {
	g, err := NewMercadoPagoGateway("", "", true)
	require.NoError(t, err)
	assert.NotEmpty(t, g.ClientKey())

	checkout, err := g.CreateCheckout(context.Background(), CheckoutRequest{
		TransactionID: "tx-1",
		OrderID:       "order-1",
		Title:         "Logo",
		Amount:        decimal.RequireFromString("150.00"),
		Currency:      "BRL",
	})
	require.NoError(t, err)
	assert.Contains(t, checkout.Token, "mock-pref-")
	assert.Contains(t, checkout.RedirectURL, checkout.Token)
	assert.Contains(t, string(checkout.Raw), `"external_reference":"tx-1"`)

	approved, err := g.GetPayment(context.Background(), "123")
	require.NoError(t, err)
	assert.True(t, approved.Approved())

	rejected, err := g.GetPayment(context.Background(), "rejected-1")
	require.NoError(t, err)
	assert.False(t, rejected.Approved())

	_, err = g.GetPayment(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidPaymentID)
}

func TestNewMercadoPagoGateway_RequiresToken(t *testing.T) {
	t.Setenv("PAYMENT_GATEWAY_MOCK", "")
	t.Setenv("MERCADOPAGO_MOCK", "")

	_, err := NewMercadoPagoGateway("", "pk", false)
	assert.ErrorIs(t, err, ErrMissingAccessToken)
}

func TestWrapProviderError(t *testing.T) {
	err := wrapProviderError(context.Background(), "get_payment", errors.New("404"))
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "get_payment", pe.Op)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = wrapProviderError(ctx, "get_payment", errors.New("canceled"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.As(err, &pe))
}
