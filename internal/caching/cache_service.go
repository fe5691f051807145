package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"transitpass/internal/models"
)

// ErrCacheMiss is returned when a key is absent; callers fall through to the
// repository.
var ErrCacheMiss = errors.New("cache miss")

// CacheService fronts the read-mostly plan catalog.
type CacheService interface {
	GetPlan(ctx context.Context, planID uuid.UUID) (*models.Plan, error)
	SetPlan(ctx context.Context, plan *models.Plan, ttl time.Duration) error
	GetPlanByCode(ctx context.Context, code string) (*models.Plan, error)
	SetPlanByCode(ctx context.Context, plan *models.Plan, ttl time.Duration) error
	DeletePlan(ctx context.Context, planID uuid.UUID, code string) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func planKey(planID uuid.UUID) string {
	return fmt.Sprintf("plan:id:%s", planID)
}

func planCodeKey(code string) string {
	return fmt.Sprintf("plan:code:%s", code)
}

func (c *redisCacheService) GetPlan(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
	return c.get(ctx, planKey(planID))
}

func (c *redisCacheService) SetPlan(ctx context.Context, plan *models.Plan, ttl time.Duration) error {
	return c.set(ctx, planKey(plan.ID), plan, ttl)
}

func (c *redisCacheService) GetPlanByCode(ctx context.Context, code string) (*models.Plan, error) {
	return c.get(ctx, planCodeKey(code))
}

func (c *redisCacheService) SetPlanByCode(ctx context.Context, plan *models.Plan, ttl time.Duration) error {
	return c.set(ctx, planCodeKey(plan.Code), plan, ttl)
}

func (c *redisCacheService) DeletePlan(ctx context.Context, planID uuid.UUID, code string) error {
	return c.client.Del(ctx, planKey(planID), planCodeKey(code)).Err()
}

func (c *redisCacheService) get(ctx context.Context, key string) (*models.Plan, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	plan := &models.Plan{}
	if err := json.Unmarshal(data, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (c *redisCacheService) set(ctx context.Context, key string, plan *models.Plan, ttl time.Duration) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}
