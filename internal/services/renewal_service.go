package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"transitpass/internal/models"
	"transitpass/internal/repositories"
)

// RenewalService is the batch engine behind the daily sweeps. Items are
// processed independently: one subscription failing must never abort the
// rest of the batch, so each iteration logs and continues.
type RenewalService interface {
	ProcessAutomaticRenewals(ctx context.Context, today time.Time) (int, error)
	ExpireSubscriptions(ctx context.Context, today time.Time) (int, error)
	GetSubscriptionsToRenew(ctx context.Context, today time.Time) ([]uuid.UUID, error)
}

type renewalService struct {
	subscriptionRepo repositories.SubscriptionRepository
	subscriptionSvc  SubscriptionService
}

func NewRenewalService(
	subscriptionRepo repositories.SubscriptionRepository,
	subscriptionSvc SubscriptionService,
) RenewalService {
	return &renewalService{
		subscriptionRepo: subscriptionRepo,
		subscriptionSvc:  subscriptionSvc,
	}
}

// ProcessAutomaticRenewals renews every ACTIVE auto-renew subscription whose
// next billing date is due, keeping the current plan. Returns the number of
// successful renewals.
func (s *renewalService) ProcessAutomaticRenewals(ctx context.Context, today time.Time) (int, error) {
	log.Printf("Processing automatic renewals for date: %s", today.Format(time.DateOnly))

	subscriptions, err := s.subscriptionRepo.FindDueForRenewal(ctx, today)
	if err != nil {
		return 0, err
	}

	renewed := 0
	for _, subscription := range subscriptions {
		if _, err := s.subscriptionSvc.RenewSubscription(ctx, subscription.ID, &RenewSubscriptionRequest{}); err != nil {
			log.Printf("Failed to renew subscription %s: %v", subscription.ID, err)
			continue
		}
		renewed++
	}

	log.Printf("%d subscription(s) renewed automatically", renewed)
	return renewed, nil
}

// ExpireSubscriptions expires every ACTIVE subscription whose end date has
// passed. Returns the number of successful expirations.
func (s *renewalService) ExpireSubscriptions(ctx context.Context, today time.Time) (int, error) {
	log.Printf("Expiring subscriptions for date: %s", today.Format(time.DateOnly))

	subscriptions, err := s.subscriptionRepo.FindExpired(ctx, models.StatusActive, today)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, subscription := range subscriptions {
		if _, err := s.subscriptionSvc.ExpireSubscription(ctx, subscription.ID); err != nil {
			log.Printf("Failed to expire subscription %s: %v", subscription.ID, err)
			continue
		}
		expired++
	}

	log.Printf("%d subscription(s) expired", expired)
	return expired, nil
}

// GetSubscriptionsToRenew is a read-only preview of the renewal sweep, used
// for diagnostics.
func (s *renewalService) GetSubscriptionsToRenew(ctx context.Context, today time.Time) ([]uuid.UUID, error) {
	subscriptions, err := s.subscriptionRepo.FindBillableByStatus(ctx, models.StatusActive, today)
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	for _, subscription := range subscriptions {
		if subscription.AutoRenewEnabled {
			ids = append(ids, subscription.ID)
		}
	}
	return ids, nil
}
