package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"transitpass/internal/common"
)

// Plan is a catalog entry. Subscriptions reference plans by id and resolve
// them through the catalog; plan data is never embedded into a subscription.
type Plan struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Code         string          `json:"code" db:"code"`
	Description  *string         `json:"description,omitempty" db:"description"`
	DurationDays int             `json:"duration_days" db:"duration_days"`
	Price        decimal.Decimal `json:"price" db:"price"`
	Currency     string          `json:"currency" db:"currency"`
	IsActive     bool            `json:"is_active" db:"is_active"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// Validate checks catalog invariants.
func (p *Plan) Validate() error {
	if p.Code == "" {
		return common.InvalidOperationError("plan code is required")
	}
	if p.DurationDays <= 0 {
		return common.InvalidOperationError("plan duration must be positive")
	}
	if p.Price.IsNegative() {
		return common.InvalidOperationError("plan price cannot be negative")
	}
	if p.Currency == "" {
		return common.InvalidOperationError("plan currency is required")
	}
	return nil
}
