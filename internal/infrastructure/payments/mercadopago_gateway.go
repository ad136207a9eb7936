package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"designhub_backend/internal/logger"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/shopspring/decimal"
)

// MercadoPagoGateway - Checkout Pro: preference как токен оплаты, payment для проверки статуса
type MercadoPagoGateway struct {
	preferences preference.Client
	payments    payment.Client
	publicKey   string
	mockMode    bool
}

var _ Gateway = (*MercadoPagoGateway)(nil)

// NewMercadoPagoGateway создаёт шлюз. В mock-режиме сеть не используется.
func NewMercadoPagoGateway(accessToken, publicKey string, mock bool) (*MercadoPagoGateway, error) {
	if mock || isPaymentGatewayMockEnabled() {
		logger.Info("[payment][gateway] mock mode enabled")
		if publicKey == "" {
			publicKey = "TEST-mock-public-key"
		}
		return &MercadoPagoGateway{mockMode: true, publicKey: publicKey}, nil
	}

	if accessToken == "" {
		logger.Error("[payment][gateway] missing MERCADOPAGO_ACCESS_TOKEN")
		return nil, ErrMissingAccessToken
	}

	cfg, err := config.New(accessToken)
	if err != nil {
		logger.Error("[payment][gateway] failed creating sdk config", "error", err)
		return nil, err
	}
	logger.Info("[payment][gateway] Mercado Pago client initialized")

	return &MercadoPagoGateway{
		preferences: preference.NewClient(cfg),
		payments:    payment.NewClient(cfg),
		publicKey:   publicKey,
	}, nil
}

func (g *MercadoPagoGateway) ClientKey() string {
	return g.publicKey
}

func (g *MercadoPagoGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if g != nil && g.mockMode {
		token := "mock-pref-" + strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
		raw, _ := json.Marshal(map[string]any{
			"id":                 token,
			"external_reference": req.TransactionID,
			"amount":             req.Amount.StringFixed(2),
			"currency":           req.Currency,
		})
		logger.CtxInfo(ctx, "[payment][gateway] mock checkout created", "token", token, "order_id", req.OrderID)
		return &Checkout{
			Token:       token,
			RedirectURL: "https://sandbox.mercadopago.local/checkout?pref_id=" + token,
			Raw:         raw,
		}, nil
	}

	if g == nil || g.preferences == nil {
		return nil, ErrGatewayNotConfigured
	}

	request := preference.Request{
		ExternalReference: req.TransactionID,
		Items: []preference.ItemRequest{
			{
				ID:         req.OrderID,
				Title:      req.Title,
				Quantity:   1,
				UnitPrice:  req.Amount.InexactFloat64(),
				CurrencyID: req.Currency,
			},
		},
	}
	if req.PayerEmail != "" {
		request.Payer = &preference.PayerRequest{Email: req.PayerEmail}
	}

	resp, err := g.preferences.Create(ctx, request)
	if err != nil {
		logger.CtxWarn(ctx, "[payment][gateway] preference create failed", "order_id", req.OrderID, "error", err)
		return nil, wrapProviderError(ctx, "create_checkout", err)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("marshal provider response: %w", err)
	}
	logger.CtxInfo(ctx, "[payment][gateway] preference created", "token", resp.ID, "order_id", req.OrderID)

	return &Checkout{Token: resp.ID, RedirectURL: resp.InitPoint, Raw: raw}, nil
}

func (g *MercadoPagoGateway) GetPayment(ctx context.Context, providerPaymentID string) (*PaymentResult, error) {
	providerPaymentID = strings.TrimSpace(providerPaymentID)
	if providerPaymentID == "" {
		return nil, ErrInvalidPaymentID
	}

	if g != nil && g.mockMode {
		// "rejected-*" имитирует отказ банка
		status, detail := "approved", "accredited"
		if strings.HasPrefix(providerPaymentID, "rejected-") {
			status, detail = "rejected", "cc_rejected_other_reason"
		}
		raw, _ := json.Marshal(map[string]any{"id": providerPaymentID, "status": status, "status_detail": detail})
		logger.CtxInfo(ctx, "[payment][gateway] mock payment fetched", "provider_payment_id", providerPaymentID, "status", status)
		return &PaymentResult{
			ProviderPaymentID: providerPaymentID,
			Status:            status,
			StatusDetail:      detail,
			Raw:               raw,
		}, nil
	}

	if g == nil || g.payments == nil {
		return nil, ErrGatewayNotConfigured
	}

	id, err := strconv.Atoi(providerPaymentID)
	if err != nil {
		return nil, ErrInvalidPaymentID
	}

	resp, err := g.payments.Get(ctx, id)
	if err != nil {
		logger.CtxWarn(ctx, "[payment][gateway] payment get failed", "provider_payment_id", providerPaymentID, "error", err)
		return nil, wrapProviderError(ctx, "get_payment", err)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("marshal provider response: %w", err)
	}

	return &PaymentResult{
		ProviderPaymentID: strconv.Itoa(resp.ID),
		Status:            resp.Status,
		StatusDetail:      resp.StatusDetail,
		ExternalReference: resp.ExternalReference,
		Amount:            decimal.NewFromFloat(resp.TransactionAmount),
		Raw:               raw,
	}, nil
}

// wrapProviderError оставляет таймауты контекста как есть, остальное - ошибка провайдера
func wrapProviderError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
	return &ProviderError{Op: op, Err: err}
}

func isPaymentGatewayMockEnabled() bool {
	for _, key := range []string{"PAYMENT_GATEWAY_MOCK", "MERCADOPAGO_MOCK"} {
		v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
		switch v {
		case "1", "true", "yes", "on", "mock":
			return true
		}
	}
	return false
}
