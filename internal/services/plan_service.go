package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"transitpass/internal/caching"
	"transitpass/internal/models"
	"transitpass/internal/repositories"
)

// PlanService is the read-mostly plan catalog. Plans are referenced, never
// embedded, so renewals always resolve current plan data through here.
type PlanService interface {
	GetPlanByID(ctx context.Context, planID uuid.UUID) (*models.Plan, error)
	GetPlanByCode(ctx context.Context, code string) (*models.Plan, error)
	GetActivePlans(ctx context.Context) ([]*models.Plan, error)
	GetAllPlans(ctx context.Context) ([]*models.Plan, error)
}

const planCacheTTL = 10 * time.Minute

type planService struct {
	planRepo repositories.PlanRepository
	cacheSvc caching.CacheService
}

// NewPlanService creates a plan catalog service. cacheSvc may be nil, in
// which case every lookup hits the repository.
func NewPlanService(planRepo repositories.PlanRepository, cacheSvc caching.CacheService) PlanService {
	return &planService{planRepo: planRepo, cacheSvc: cacheSvc}
}

func (s *planService) GetPlanByID(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
	if s.cacheSvc != nil {
		if plan, err := s.cacheSvc.GetPlan(ctx, planID); err == nil {
			return plan, nil
		}
	}

	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	if s.cacheSvc != nil {
		if err := s.cacheSvc.SetPlan(ctx, plan, planCacheTTL); err != nil {
			log.Printf("Failed to cache plan %s: %v", planID, err)
		}
	}
	return plan, nil
}

func (s *planService) GetPlanByCode(ctx context.Context, code string) (*models.Plan, error) {
	if s.cacheSvc != nil {
		if plan, err := s.cacheSvc.GetPlanByCode(ctx, code); err == nil {
			return plan, nil
		}
	}

	plan, err := s.planRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if s.cacheSvc != nil {
		if err := s.cacheSvc.SetPlanByCode(ctx, plan, planCacheTTL); err != nil {
			log.Printf("Failed to cache plan %s: %v", code, err)
		}
	}
	return plan, nil
}

func (s *planService) GetActivePlans(ctx context.Context) ([]*models.Plan, error) {
	return s.planRepo.ListActive(ctx)
}

func (s *planService) GetAllPlans(ctx context.Context) ([]*models.Plan, error) {
	return s.planRepo.ListAll(ctx)
}
