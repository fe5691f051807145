package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"transitpass/internal/common"
	"transitpass/internal/models"
)

// ErrDuplicateIdempotencyKey is returned when an insert hits the unique
// constraint on idempotency_key. Callers re-read the original record instead
// of creating a duplicate.
var ErrDuplicateIdempotencyKey = errors.New("payment with idempotency key already recorded")

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error)
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*models.Payment, error)
	SumSucceededBySubscription(ctx context.Context, subscriptionID uuid.UUID) (decimal.Decimal, error)
}

type paymentRepo struct {
	db Database
}

func NewPaymentRepo(db Database) PaymentRepository {
	return &paymentRepo{db: db}
}

const paymentColumns = `id, subscription_id, amount, currency, status, method, type,
		payment_date, failure_reason, external_txn_id, idempotency_key, created_at`

// uniqueViolation is the postgres error code the idempotency-key constraint
// raises; the at-most-once guarantee rests on this constraint, not on a
// check-then-insert.
const uniqueViolation = "23505"

func (r *paymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO subscription_payments (id, subscription_id, amount, currency, status, method, type,
			payment_date, failure_reason, external_txn_id, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	`
	_, err := resolve(ctx, r.db).Exec(ctx, query,
		payment.ID, payment.SubscriptionID, payment.Amount, payment.Currency,
		payment.Status, payment.Method, payment.Type, payment.PaymentDate,
		payment.FailureReason, payment.ExternalTxnID, payment.IdempotencyKey)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateIdempotencyKey
		}
		return err
	}
	return nil
}

func (r *paymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM subscription_payments
		WHERE id = $1
	`
	payment, err := scanPayment(resolve(ctx, r.db).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NotFoundError("payment not found with id: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *paymentRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM subscription_payments
		WHERE idempotency_key = $1
	`
	payment, err := scanPayment(resolve(ctx, r.db).QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NotFoundError("payment not found with idempotency key: %s", key)
	}
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *paymentRepo) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM subscription_payments
		WHERE subscription_id = $1
		ORDER BY payment_date DESC
	`
	rows, err := resolve(ctx, r.db).Query(ctx, query, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		if err := rows.Scan(&p.ID, &p.SubscriptionID, &p.Amount, &p.Currency, &p.Status,
			&p.Method, &p.Type, &p.PaymentDate, &p.FailureReason, &p.ExternalTxnID,
			&p.IdempotencyKey, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *paymentRepo) SumSucceededBySubscription(ctx context.Context, subscriptionID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM subscription_payments
		WHERE subscription_id = $1 AND status = $2
	`
	var total decimal.Decimal
	err := resolve(ctx, r.db).QueryRow(ctx, query, subscriptionID, models.PaymentSucceeded).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	p := &models.Payment{}
	err := row.Scan(&p.ID, &p.SubscriptionID, &p.Amount, &p.Currency, &p.Status,
		&p.Method, &p.Type, &p.PaymentDate, &p.FailureReason, &p.ExternalTxnID,
		&p.IdempotencyKey, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
