package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"transitpass/internal/common"
	"transitpass/internal/models"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *models.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	// GetByIDForUpdate locks the subscription row for the duration of the
	// ambient transaction so concurrent transitions on the same id serialize.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	Update(ctx context.Context, subscription *models.Subscription) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Subscription, error)
	ListByUserAndStatus(ctx context.Context, userID uuid.UUID, status models.SubscriptionStatus) ([]*models.Subscription, error)
	ExistsByUserPlanAndStatus(ctx context.Context, userID, planID uuid.UUID, status models.SubscriptionStatus) (bool, error)
	// FindDueForRenewal returns ACTIVE auto-renew subscriptions whose next
	// billing date is on or before the given date.
	FindDueForRenewal(ctx context.Context, date time.Time) ([]*models.Subscription, error)
	// FindBillableByStatus returns subscriptions in the given status whose
	// next billing date is on or before the given date, auto-renew or not.
	FindBillableByStatus(ctx context.Context, status models.SubscriptionStatus, date time.Time) ([]*models.Subscription, error)
	// FindExpired returns subscriptions in the given status whose end date is
	// strictly before the given date.
	FindExpired(ctx context.Context, status models.SubscriptionStatus, date time.Time) ([]*models.Subscription, error)
}

type subscriptionRepo struct {
	db Database
}

func NewSubscriptionRepo(db Database) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

const subscriptionColumns = `id, user_id, plan_id, status, start_date, end_date, next_billing_date,
		amount_paid, auto_renew_enabled, card_token, card_exp_month, card_exp_year,
		qr_code_data, created_at, updated_at, deleted_at`

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	s := &models.Subscription{}
	err := row.Scan(&s.ID, &s.UserID, &s.PlanID, &s.Status, &s.StartDate, &s.EndDate,
		&s.NextBillingDate, &s.AmountPaid, &s.AutoRenewEnabled, &s.CardToken,
		&s.CardExpMonth, &s.CardExpYear, &s.QRCodeData, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *subscriptionRepo) Create(ctx context.Context, subscription *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, user_id, plan_id, status, start_date, end_date, next_billing_date,
			amount_paid, auto_renew_enabled, card_token, card_exp_month, card_exp_year,
			qr_code_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`
	_, err := resolve(ctx, r.db).Exec(ctx, query,
		subscription.ID, subscription.UserID, subscription.PlanID, subscription.Status,
		subscription.StartDate, subscription.EndDate, subscription.NextBillingDate,
		subscription.AmountPaid, subscription.AutoRenewEnabled, subscription.CardToken,
		subscription.CardExpMonth, subscription.CardExpYear, subscription.QRCodeData)
	return err
}

func (r *subscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.getOne(ctx, query, id)
}

func (r *subscriptionRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`
	return r.getOne(ctx, query, id)
}

func (r *subscriptionRepo) getOne(ctx context.Context, query string, id uuid.UUID) (*models.Subscription, error) {
	subscription, err := scanSubscription(resolve(ctx, r.db).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NotFoundError("subscription not found with id: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return subscription, nil
}

func (r *subscriptionRepo) Update(ctx context.Context, subscription *models.Subscription) error {
	query := `
		UPDATE subscriptions
		SET plan_id = $1, status = $2, start_date = $3, end_date = $4, next_billing_date = $5,
			amount_paid = $6, auto_renew_enabled = $7, card_token = $8, card_exp_month = $9,
			card_exp_year = $10, qr_code_data = $11, updated_at = NOW()
		WHERE id = $12 AND deleted_at IS NULL
	`
	tag, err := resolve(ctx, r.db).Exec(ctx, query,
		subscription.PlanID, subscription.Status, subscription.StartDate, subscription.EndDate,
		subscription.NextBillingDate, subscription.AmountPaid, subscription.AutoRenewEnabled,
		subscription.CardToken, subscription.CardExpMonth, subscription.CardExpYear,
		subscription.QRCodeData, subscription.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NotFoundError("subscription not found with id: %s", subscription.ID)
	}
	return nil
}

func (r *subscriptionRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE subscriptions
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	tag, err := resolve(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NotFoundError("subscription not found with id: %s", id)
	}
	return nil
}

func (r *subscriptionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID)
}

func (r *subscriptionRepo) ListByUserAndStatus(ctx context.Context, userID uuid.UUID, status models.SubscriptionStatus) ([]*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status = $2 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID, status)
}

func (r *subscriptionRepo) ExistsByUserPlanAndStatus(ctx context.Context, userID, planID uuid.UUID, status models.SubscriptionStatus) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE user_id = $1 AND plan_id = $2 AND status = $3 AND deleted_at IS NULL
		)
	`
	var exists bool
	err := resolve(ctx, r.db).QueryRow(ctx, query, userID, planID, status).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *subscriptionRepo) FindDueForRenewal(ctx context.Context, date time.Time) ([]*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = $1 AND auto_renew_enabled = true
			AND next_billing_date IS NOT NULL AND next_billing_date <= $2
			AND deleted_at IS NULL
		ORDER BY next_billing_date
	`
	return r.list(ctx, query, models.StatusActive, date)
}

func (r *subscriptionRepo) FindBillableByStatus(ctx context.Context, status models.SubscriptionStatus, date time.Time) ([]*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = $1
			AND next_billing_date IS NOT NULL AND next_billing_date <= $2
			AND deleted_at IS NULL
		ORDER BY next_billing_date
	`
	return r.list(ctx, query, status, date)
}

func (r *subscriptionRepo) FindExpired(ctx context.Context, status models.SubscriptionStatus, date time.Time) ([]*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = $1
			AND end_date IS NOT NULL AND end_date < $2
			AND deleted_at IS NULL
		ORDER BY end_date
	`
	return r.list(ctx, query, status, date)
}

func (r *subscriptionRepo) list(ctx context.Context, query string, args ...interface{}) ([]*models.Subscription, error) {
	rows, err := resolve(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subscriptions []*models.Subscription
	for rows.Next() {
		s := &models.Subscription{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.PlanID, &s.Status, &s.StartDate, &s.EndDate,
			&s.NextBillingDate, &s.AmountPaid, &s.AutoRenewEnabled, &s.CardToken,
			&s.CardExpMonth, &s.CardExpYear, &s.QRCodeData, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt); err != nil {
			return nil, err
		}
		subscriptions = append(subscriptions, s)
	}
	return subscriptions, rows.Err()
}
