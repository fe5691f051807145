package repositories

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"transitpass/internal/models"
)

// SubscriptionHistoryRepository is append-only: audit records are written
// once and never updated or deleted.
type SubscriptionHistoryRepository interface {
	Append(ctx context.Context, entry *models.SubscriptionHistory) error
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*models.SubscriptionHistory, error)
}

type historyRepo struct {
	db Database
}

func NewSubscriptionHistoryRepo(db Database) SubscriptionHistoryRepository {
	return &historyRepo{db: db}
}

func (r *historyRepo) Append(ctx context.Context, entry *models.SubscriptionHistory) error {
	var metadata []byte
	if entry.Metadata != nil {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO subscription_history (id, subscription_id, old_status, new_status, event_type,
			event_date, performed_by, details, metadata)
		VALUES ($1, $2, $3, $4, $5, NOW(), $6, $7, $8)
	`
	_, err := resolve(ctx, r.db).Exec(ctx, query,
		entry.ID, entry.SubscriptionID, entry.OldStatus, entry.NewStatus,
		entry.EventType, entry.PerformedBy, entry.Details, metadata)
	return err
}

func (r *historyRepo) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*models.SubscriptionHistory, error) {
	query := `
		SELECT id, subscription_id, old_status, new_status, event_type, event_date,
			performed_by, details, metadata
		FROM subscription_history
		WHERE subscription_id = $1
		ORDER BY event_date DESC
	`
	rows, err := resolve(ctx, r.db).Query(ctx, query, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.SubscriptionHistory
	for rows.Next() {
		entry := &models.SubscriptionHistory{}
		var metadata []byte
		if err := rows.Scan(&entry.ID, &entry.SubscriptionID, &entry.OldStatus, &entry.NewStatus,
			&entry.EventType, &entry.EventDate, &entry.PerformedBy, &entry.Details, &metadata); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
