package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"transitpass/internal/common"
	"transitpass/internal/models"
)

type PlanRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	GetByCode(ctx context.Context, code string) (*models.Plan, error)
	ListActive(ctx context.Context) ([]*models.Plan, error)
	ListAll(ctx context.Context) ([]*models.Plan, error)
}

type planRepo struct {
	db Database
}

func NewPlanRepo(db Database) PlanRepository {
	return &planRepo{db: db}
}

const planColumns = `id, code, description, duration_days, price, currency, is_active, created_at, updated_at`

func scanPlan(row pgx.Row) (*models.Plan, error) {
	plan := &models.Plan{}
	err := row.Scan(&plan.ID, &plan.Code, &plan.Description, &plan.DurationDays,
		&plan.Price, &plan.Currency, &plan.IsActive, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *planRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM subscription_plans
		WHERE id = $1
	`
	plan, err := scanPlan(resolve(ctx, r.db).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NotFoundError("plan not found with id: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *planRepo) GetByCode(ctx context.Context, code string) (*models.Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM subscription_plans
		WHERE code = $1
	`
	plan, err := scanPlan(resolve(ctx, r.db).QueryRow(ctx, query, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NotFoundError("plan not found with code: %s", code)
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *planRepo) ListActive(ctx context.Context) ([]*models.Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM subscription_plans
		WHERE is_active = true
		ORDER BY code
	`
	return r.list(ctx, query)
}

func (r *planRepo) ListAll(ctx context.Context) ([]*models.Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM subscription_plans
		ORDER BY code
	`
	return r.list(ctx, query)
}

func (r *planRepo) list(ctx context.Context, query string) ([]*models.Plan, error) {
	rows, err := resolve(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan := &models.Plan{}
		if err := rows.Scan(&plan.ID, &plan.Code, &plan.Description, &plan.DurationDays,
			&plan.Price, &plan.Currency, &plan.IsActive, &plan.CreatedAt, &plan.UpdatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}
