package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"transitpass/internal/models"
)

// PaymentGateway abstracts the external payment provider (Stripe, PayPal,
// ...). The core only ever talks to it through this interface; retries, if
// any, belong to the adapter behind it.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, externalTxnID string, amount decimal.Decimal) (*RefundResult, error)
	VerifyWebhookSignature(payload []byte, signature string) bool
}

type ChargeRequest struct {
	SubscriptionID uuid.UUID
	UserID         uuid.UUID
	Amount         decimal.Decimal
	Currency       string
	Method         models.PaymentMethod
	CardToken      string
	IdempotencyKey string
}

type ChargeResult struct {
	Success       bool
	ExternalTxnID string
	FailureReason string
}

type RefundResult struct {
	Success       bool
	RefundID      string
	FailureReason string
}

type mockPaymentGateway struct {
	webhookSecret string
}

// NewMockPaymentGateway returns a simulated gateway: card charges succeed
// when a card token is present, other methods always succeed. Swap in a real
// provider adapter behind the same interface for production.
func NewMockPaymentGateway(webhookSecret string) PaymentGateway {
	return &mockPaymentGateway{webhookSecret: webhookSecret}
}

func (g *mockPaymentGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	success := true
	if req.Method == models.MethodCard {
		success = req.CardToken != ""
	}
	if !success {
		return &ChargeResult{
			Success:       false,
			FailureReason: "Payment declined by gateway",
		}, nil
	}
	return &ChargeResult{
		Success:       true,
		ExternalTxnID: fmt.Sprintf("mock-%s", uuid.New()),
	}, nil
}

func (g *mockPaymentGateway) Refund(ctx context.Context, externalTxnID string, amount decimal.Decimal) (*RefundResult, error) {
	if externalTxnID == "" {
		return &RefundResult{
			Success:       false,
			FailureReason: "Missing external transaction id",
		}, nil
	}
	return &RefundResult{
		Success:  true,
		RefundID: fmt.Sprintf("%s-refund-%s", externalTxnID, uuid.New()),
	}, nil
}

func (g *mockPaymentGateway) VerifyWebhookSignature(payload []byte, signature string) bool {
	hash := hmac.New(sha256.New, []byte(g.webhookSecret))
	hash.Write(payload)
	expected := hex.EncodeToString(hash.Sum(nil))

	// Constant time comparison to prevent timing attacks.
	return hmac.Equal([]byte(signature), []byte(expected))
}
