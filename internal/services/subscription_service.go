package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"transitpass/internal/common"
	"transitpass/internal/models"
	"transitpass/internal/repositories"
)

// SubscriptionService owns subscription entities and enforces the legal
// status transitions. Every transition runs as one transaction spanning the
// row lock, the update and the history append.
type SubscriptionService interface {
	CreateSubscription(ctx context.Context, req *CreateSubscriptionRequest) (*models.Subscription, error)
	GetSubscriptionByID(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error)
	GetUserSubscriptions(ctx context.Context, userID uuid.UUID) ([]*models.Subscription, error)
	GetActiveUserSubscriptions(ctx context.Context, userID uuid.UUID) ([]*models.Subscription, error)
	GetSubscriptionHistory(ctx context.Context, subscriptionID uuid.UUID) ([]*models.SubscriptionHistory, error)
	UpdateSubscription(ctx context.Context, subscriptionID uuid.UUID, req *UpdateSubscriptionRequest) (*models.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID uuid.UUID, req *CancelSubscriptionRequest) (*models.Subscription, error)
	RenewSubscription(ctx context.Context, subscriptionID uuid.UUID, req *RenewSubscriptionRequest) (*models.Subscription, error)
	ActivateSubscription(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error)
	ExpireSubscription(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error)
	DeleteSubscription(ctx context.Context, subscriptionID uuid.UUID) error
}

type CreateSubscriptionRequest struct {
	UserID           uuid.UUID
	PlanID           uuid.UUID
	AutoRenewEnabled bool
	CardToken        *string
	CardExpMonth     *int
	CardExpYear      *int
}

// UpdateSubscriptionRequest carries partial updates: nil fields are no-ops,
// never resets.
type UpdateSubscriptionRequest struct {
	AutoRenewEnabled *bool
	CardToken        *string
	CardExpMonth     *int
	CardExpYear      *int
}

type CancelSubscriptionRequest struct {
	Reason    string
	Immediate bool
}

type RenewSubscriptionRequest struct {
	PlanID    *uuid.UUID
	CardToken *string
}

type subscriptionService struct {
	db               repositories.Database
	subscriptionRepo repositories.SubscriptionRepository
	historyRepo      repositories.SubscriptionHistoryRepository
	planSvc          PlanService
}

func NewSubscriptionService(
	db repositories.Database,
	subscriptionRepo repositories.SubscriptionRepository,
	historyRepo repositories.SubscriptionHistoryRepository,
	planSvc PlanService,
) SubscriptionService {
	return &subscriptionService{
		db:               db,
		subscriptionRepo: subscriptionRepo,
		historyRepo:      historyRepo,
		planSvc:          planSvc,
	}
}

// CreateSubscription creates a PENDING subscription for an active plan. The
// user must not already hold an ACTIVE subscription for the same plan.
func (s *subscriptionService) CreateSubscription(ctx context.Context, req *CreateSubscriptionRequest) (*models.Subscription, error) {
	log.Printf("Creating subscription for user %s on plan %s", req.UserID, req.PlanID)

	plan, err := s.planSvc.GetPlanByID(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, common.InvalidOperationError("cannot create subscription with inactive plan")
	}

	exists, err := s.subscriptionRepo.ExistsByUserPlanAndStatus(ctx, req.UserID, req.PlanID, models.StatusActive)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.InvalidOperationError("user already has an active subscription for this plan")
	}

	startDate := common.Today()
	endDate := common.CalculateEndDate(startDate, plan.DurationDays)
	subscription := &models.Subscription{
		ID:               uuid.New(),
		UserID:           req.UserID,
		PlanID:           req.PlanID,
		Status:           models.StatusPending,
		StartDate:        startDate,
		EndDate:          &endDate,
		NextBillingDate:  &endDate,
		AmountPaid:       decimal.Zero,
		AutoRenewEnabled: req.AutoRenewEnabled,
		CardToken:        req.CardToken,
		CardExpMonth:     req.CardExpMonth,
		CardExpYear:      req.CardExpYear,
	}
	subscription.QRCodeData = generateQRCode(subscription, plan.Code)

	err = repositories.RunInTx(ctx, s.db, func(ctx context.Context) error {
		if err := s.subscriptionRepo.Create(ctx, subscription); err != nil {
			return err
		}
		return s.recordHistory(ctx, subscription, nil, models.StatusPending,
			models.EventSubscriptionCreated, "Subscription created with plan: "+plan.Code)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Subscription created: %s", subscription.ID)
	return subscription, nil
}

func (s *subscriptionService) GetSubscriptionByID(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error) {
	return s.subscriptionRepo.GetByID(ctx, subscriptionID)
}

func (s *subscriptionService) GetUserSubscriptions(ctx context.Context, userID uuid.UUID) ([]*models.Subscription, error) {
	return s.subscriptionRepo.ListByUser(ctx, userID)
}

func (s *subscriptionService) GetActiveUserSubscriptions(ctx context.Context, userID uuid.UUID) ([]*models.Subscription, error) {
	return s.subscriptionRepo.ListByUserAndStatus(ctx, userID, models.StatusActive)
}

func (s *subscriptionService) GetSubscriptionHistory(ctx context.Context, subscriptionID uuid.UUID) ([]*models.SubscriptionHistory, error) {
	if _, err := s.subscriptionRepo.GetByID(ctx, subscriptionID); err != nil {
		return nil, err
	}
	return s.historyRepo.ListBySubscription(ctx, subscriptionID)
}

// UpdateSubscription merges the provided fields without touching status.
func (s *subscriptionService) UpdateSubscription(ctx context.Context, subscriptionID uuid.UUID, req *UpdateSubscriptionRequest) (*models.Subscription, error) {
	log.Printf("Updating subscription: %s", subscriptionID)

	var subscription *models.Subscription
	err := repositories.RunInTx(ctx, s.db, func(ctx context.Context) error {
		var err error
		subscription, err = s.subscriptionRepo.GetByIDForUpdate(ctx, subscriptionID)
		if err != nil {
			return err
		}

		if req.AutoRenewEnabled != nil {
			subscription.AutoRenewEnabled = *req.AutoRenewEnabled
		}
		if req.CardToken != nil {
			subscription.CardToken = req.CardToken
		}
		if req.CardExpMonth != nil {
			subscription.CardExpMonth = req.CardExpMonth
		}
		if req.CardExpYear != nil {
			subscription.CardExpYear = req.CardExpYear
		}

		if err := s.subscriptionRepo.Update(ctx, subscription); err != nil {
			return err
		}
		oldStatus := subscription.Status
		return s.recordHistory(ctx, subscription, &oldStatus, subscription.Status,
			models.EventSubscriptionUpdated, "Subscription updated")
	})
	if err != nil {
		return nil, err
	}
	return subscription, nil
}

// CancelSubscription moves a non-expired subscription to CANCELLED. An
// immediate cancel closes the paid period today; otherwise the subscription
// stays usable through its existing end date with auto-renew disabled.
func (s *subscriptionService) CancelSubscription(ctx context.Context, subscriptionID uuid.UUID, req *CancelSubscriptionRequest) (*models.Subscription, error) {
	log.Printf("Cancelling subscription: %s", subscriptionID)

	var subscription *models.Subscription
	err := repositories.RunInTx(ctx, s.db, func(ctx context.Context) error {
		var err error
		subscription, err = s.subscriptionRepo.GetByIDForUpdate(ctx, subscriptionID)
		if err != nil {
			return err
		}

		if subscription.Status == models.StatusExpired {
			return common.SubscriptionExpiredError("cannot cancel an expired subscription")
		}

		oldStatus := subscription.Status
		subscription.Status = models.StatusCancelled
		if req.Immediate {
			today := common.Today()
			subscription.EndDate = &today
		} else {
			subscription.AutoRenewEnabled = false
		}

		if err := s.subscriptionRepo.Update(ctx, subscription); err != nil {
			return err
		}

		reason := req.Reason
		if reason == "" {
			reason = "No reason provided"
		}
		return s.recordHistory(ctx, subscription, &oldStatus, models.StatusCancelled,
			models.EventSubscriptionCancelled, "Subscription cancelled. Reason: "+reason)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Subscription cancelled: %s", subscriptionID)
	return subscription, nil
}

// RenewSubscription restarts the billing period from today, optionally
// switching plan and card token, and moves the subscription to ACTIVE. The
// plan is always re-resolved through the catalog, never read from a copy.
func (s *subscriptionService) RenewSubscription(ctx context.Context, subscriptionID uuid.UUID, req *RenewSubscriptionRequest) (*models.Subscription, error) {
	log.Printf("Renewing subscription: %s", subscriptionID)

	var subscription *models.Subscription
	err := repositories.RunInTx(ctx, s.db, func(ctx context.Context) error {
		var err error
		subscription, err = s.subscriptionRepo.GetByIDForUpdate(ctx, subscriptionID)
		if err != nil {
			return err
		}

		if subscription.Status == models.StatusExpired {
			return common.SubscriptionExpiredError("cannot renew an expired subscription")
		}

		planID := subscription.PlanID
		if req.PlanID != nil {
			planID = *req.PlanID
		}
		plan, err := s.planSvc.GetPlanByID(ctx, planID)
		if err != nil {
			return err
		}

		oldStatus := subscription.Status
		startDate := common.Today()
		endDate := common.CalculateEndDate(startDate, plan.DurationDays)
		subscription.PlanID = plan.ID
		subscription.StartDate = startDate
		subscription.EndDate = &endDate
		subscription.NextBillingDate = &endDate
		subscription.Status = models.StatusActive
		if req.CardToken != nil {
			subscription.CardToken = req.CardToken
		}

		if err := s.subscriptionRepo.Update(ctx, subscription); err != nil {
			return err
		}
		return s.recordHistory(ctx, subscription, &oldStatus, models.StatusActive,
			models.EventSubscriptionRenewed, "Subscription renewed")
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Subscription renewed: %s", subscriptionID)
	return subscription, nil
}

// ActivateSubscription moves a PENDING subscription to ACTIVE, typically
// after a successful initial payment.
func (s *subscriptionService) ActivateSubscription(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error) {
	log.Printf("Activating subscription: %s", subscriptionID)

	var subscription *models.Subscription
	err := repositories.RunInTx(ctx, s.db, func(ctx context.Context) error {
		var err error
		subscription, err = s.subscriptionRepo.GetByIDForUpdate(ctx, subscriptionID)
		if err != nil {
			return err
		}

		if subscription.Status != models.StatusPending {
			return common.InvalidOperationError(
				"only PENDING subscriptions can be activated, current status: %s", subscription.Status)
		}

		oldStatus := subscription.Status
		subscription.Status = models.StatusActive
		if err := s.subscriptionRepo.Update(ctx, subscription); err != nil {
			return err
		}
		return s.recordHistory(ctx, subscription, &oldStatus, models.StatusActive,
			models.EventSubscriptionActivated, "Subscription activated after successful payment")
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Subscription activated: %s", subscriptionID)
	return subscription, nil
}

// ExpireSubscription marks a subscription EXPIRED. Driven by the batch
// engine once the end date has passed; carries no status guard.
func (s *subscriptionService) ExpireSubscription(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error) {
	log.Printf("Expiring subscription: %s", subscriptionID)

	var subscription *models.Subscription
	err := repositories.RunInTx(ctx, s.db, func(ctx context.Context) error {
		var err error
		subscription, err = s.subscriptionRepo.GetByIDForUpdate(ctx, subscriptionID)
		if err != nil {
			return err
		}

		oldStatus := subscription.Status
		subscription.Status = models.StatusExpired
		if err := s.subscriptionRepo.Update(ctx, subscription); err != nil {
			return err
		}
		return s.recordHistory(ctx, subscription, &oldStatus, models.StatusExpired,
			models.EventSubscriptionExpired, "Subscription expired")
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Subscription expired: %s", subscriptionID)
	return subscription, nil
}

// DeleteSubscription soft-deletes; the row and its audit trail remain.
func (s *subscriptionService) DeleteSubscription(ctx context.Context, subscriptionID uuid.UUID) error {
	log.Printf("Deleting subscription: %s", subscriptionID)

	return repositories.RunInTx(ctx, s.db, func(ctx context.Context) error {
		subscription, err := s.subscriptionRepo.GetByIDForUpdate(ctx, subscriptionID)
		if err != nil {
			return err
		}
		if err := s.subscriptionRepo.SoftDelete(ctx, subscriptionID); err != nil {
			return err
		}
		oldStatus := subscription.Status
		return s.recordHistory(ctx, subscription, &oldStatus, subscription.Status,
			models.EventSubscriptionDeleted, "Subscription deleted")
	})
}

func (s *subscriptionService) recordHistory(ctx context.Context, subscription *models.Subscription,
	oldStatus *models.SubscriptionStatus, newStatus models.SubscriptionStatus, eventType, details string) error {
	return s.historyRepo.Append(ctx, &models.SubscriptionHistory{
		ID:             uuid.New(),
		SubscriptionID: subscription.ID,
		OldStatus:      oldStatus,
		NewStatus:      newStatus,
		EventType:      eventType,
		Details:        details,
	})
}

// generateQRCode builds the opaque payload encoding subscription, user and
// plan identity. Format: SUBSCRIPTION_ID|USER_ID|PLAN_CODE.
func generateQRCode(subscription *models.Subscription, planCode string) string {
	return fmt.Sprintf("%s|%s|%s", subscription.ID, subscription.UserID, planCode)
}
