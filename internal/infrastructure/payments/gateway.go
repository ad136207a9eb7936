package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=gateway.go -destination=mocks/gateway_mock.go -package=mocks

var (
	ErrMissingAccessToken   = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
	ErrInvalidPaymentID     = errors.New("invalid provider payment id")
)

// ProviderError - провайдер ответил ошибкой (в отличие от сетевого таймаута)
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// CheckoutRequest - данные для создания чекаута по заказу
type CheckoutRequest struct {
	TransactionID string
	OrderID       string
	Title         string
	Amount        decimal.Decimal
	Currency      string
	PayerEmail    string
}

// Checkout - ответ провайдера: токен для виджета оплаты и ссылка на страницу оплаты
type Checkout struct {
	Token       string
	RedirectURL string
	Raw         json.RawMessage
}

// PaymentResult - состояние платежа у провайдера
type PaymentResult struct {
	ProviderPaymentID string
	Status            string
	StatusDetail      string
	ExternalReference string
	Amount            decimal.Decimal
	Raw               json.RawMessage
}

func (r *PaymentResult) Approved() bool {
	return r != nil && r.Status == "approved"
}

// Gateway abstracts the external payment provider (Mercado Pago)
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	GetPayment(ctx context.Context, providerPaymentID string) (*PaymentResult, error)
	// ClientKey - публичный ключ для клиентского виджета
	ClientKey() string
}
