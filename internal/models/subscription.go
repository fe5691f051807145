package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"transitpass/internal/common"
)

// SubscriptionStatus is the lifecycle state of a subscription. Transitions
// are restricted to the state machine in the subscription service; EXPIRED
// and CANCELLED are terminal.
type SubscriptionStatus string

const (
	StatusPending   SubscriptionStatus = "PENDING"
	StatusActive    SubscriptionStatus = "ACTIVE"
	StatusPaused    SubscriptionStatus = "PAUSED"
	StatusCancelled SubscriptionStatus = "CANCELLED"
	StatusExpired   SubscriptionStatus = "EXPIRED"
)

// ParseSubscriptionStatus validates a status value from the transport layer.
func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	switch SubscriptionStatus(s) {
	case StatusPending, StatusActive, StatusPaused, StatusCancelled, StatusExpired:
		return SubscriptionStatus(s), nil
	}
	return "", common.InvalidOperationError("unknown subscription status: %s", s)
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusExpired
}

type Subscription struct {
	ID               uuid.UUID          `json:"id" db:"id"`
	UserID           uuid.UUID          `json:"user_id" db:"user_id"`
	PlanID           uuid.UUID          `json:"plan_id" db:"plan_id"`
	Status           SubscriptionStatus `json:"status" db:"status"`
	StartDate        time.Time          `json:"start_date" db:"start_date"`
	EndDate          *time.Time         `json:"end_date" db:"end_date"`
	NextBillingDate  *time.Time         `json:"next_billing_date" db:"next_billing_date"`
	AmountPaid       decimal.Decimal    `json:"amount_paid" db:"amount_paid"`
	AutoRenewEnabled bool               `json:"auto_renew_enabled" db:"auto_renew_enabled"`
	CardToken        *string            `json:"card_token,omitempty" db:"card_token"`
	CardExpMonth     *int               `json:"card_exp_month,omitempty" db:"card_exp_month"`
	CardExpYear      *int               `json:"card_exp_year,omitempty" db:"card_exp_year"`
	QRCodeData       string             `json:"qr_code_data" db:"qr_code_data"`
	CreatedAt        time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" db:"updated_at"`
	DeletedAt        *time.Time         `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Validate enforces subscription invariants that hold in every state.
func (s *Subscription) Validate() error {
	if s.EndDate != nil && s.EndDate.Before(s.StartDate) {
		return common.InvalidOperationError("subscription end date cannot precede start date")
	}
	if s.AmountPaid.IsNegative() {
		return common.InvalidOperationError("subscription amount paid cannot be negative")
	}
	return nil
}
