package dto

import "designhub_backend/internal/models"

// PaymentTokenResponse - client_key в snake_case, как ждёт виджет оплаты
type PaymentTokenResponse struct {
	Token         string `json:"token"`
	ClientKey     string `json:"client_key"`
	RedirectURL   string `json:"redirect_url,omitempty"`
	TransactionID string `json:"transaction_id"`
}

type RecordPaymentRequest struct {
	PaymentID string `json:"paymentId" validate:"required,notblank,max=64"`
}

type PaymentRecordResponse struct {
	Order       *OrderResponse             `json:"order"`
	Transaction *models.PaymentTransaction `json:"transaction"`
}
