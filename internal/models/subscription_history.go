package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionHistory is an append-only audit record of a state transition.
// It is never mutated or deleted, and never consulted to validate a
// transition.
type SubscriptionHistory struct {
	ID             uuid.UUID              `json:"id" db:"id"`
	SubscriptionID uuid.UUID              `json:"subscription_id" db:"subscription_id"`
	OldStatus      *SubscriptionStatus    `json:"old_status,omitempty" db:"old_status"`
	NewStatus      SubscriptionStatus     `json:"new_status" db:"new_status"`
	EventType      string                 `json:"event_type" db:"event_type"`
	EventDate      time.Time              `json:"event_date" db:"event_date"`
	PerformedBy    *uuid.UUID             `json:"performed_by,omitempty" db:"performed_by"`
	Details        string                 `json:"details" db:"details"`
	Metadata       map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
}

// History event types.
const (
	EventSubscriptionCreated   = "SUBSCRIPTION_CREATED"
	EventSubscriptionActivated = "SUBSCRIPTION_ACTIVATED"
	EventSubscriptionUpdated   = "SUBSCRIPTION_UPDATED"
	EventSubscriptionCancelled = "SUBSCRIPTION_CANCELLED"
	EventSubscriptionRenewed   = "SUBSCRIPTION_RENEWED"
	EventSubscriptionExpired   = "SUBSCRIPTION_EXPIRED"
	EventSubscriptionDeleted   = "SUBSCRIPTION_DELETED"
)
