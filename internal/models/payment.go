package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"transitpass/internal/common"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentSucceeded PaymentStatus = "SUCCEEDED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

type PaymentMethod string

const (
	MethodCard         PaymentMethod = "CARD"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodWallet       PaymentMethod = "WALLET"
	MethodCash         PaymentMethod = "CASH"
	MethodOther        PaymentMethod = "OTHER"
)

// ParsePaymentMethod validates a payment method value from the transport layer.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case MethodCard, MethodBankTransfer, MethodWallet, MethodCash, MethodOther:
		return PaymentMethod(s), nil
	}
	return "", common.InvalidOperationError("unknown payment method: %s", s)
}

type PaymentType string

const (
	TypeInitial    PaymentType = "INITIAL"
	TypeRenewal    PaymentType = "RENEWAL"
	TypeUpgrade    PaymentType = "UPGRADE"
	TypeDowngrade  PaymentType = "DOWNGRADE"
	TypeAdjustment PaymentType = "ADJUSTMENT"
	TypeRefund     PaymentType = "REFUND"
)

// Payment is a billing ledger entry. Many payments belong to one
// subscription; idempotency keys are unique across the ledger.
type Payment struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	SubscriptionID uuid.UUID       `json:"subscription_id" db:"subscription_id"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	Currency       string          `json:"currency" db:"currency"`
	Status         PaymentStatus   `json:"status" db:"status"`
	Method         PaymentMethod   `json:"method" db:"method"`
	Type           PaymentType     `json:"type" db:"type"`
	PaymentDate    time.Time       `json:"payment_date" db:"payment_date"`
	FailureReason  *string         `json:"failure_reason,omitempty" db:"failure_reason"`
	ExternalTxnID  *string         `json:"external_txn_id,omitempty" db:"external_txn_id"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty" db:"idempotency_key"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
