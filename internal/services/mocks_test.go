package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"transitpass/internal/models"
)

// Mock repositories and collaborators shared by the service test suites.

type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, subscription *models.Subscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) Update(ctx context.Context, subscription *models.Subscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Subscription, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) ListByUserAndStatus(ctx context.Context, userID uuid.UUID, status models.SubscriptionStatus) ([]*models.Subscription, error) {
	args := m.Called(ctx, userID, status)
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) ExistsByUserPlanAndStatus(ctx context.Context, userID, planID uuid.UUID, status models.SubscriptionStatus) (bool, error) {
	args := m.Called(ctx, userID, planID, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscriptionRepository) FindDueForRenewal(ctx context.Context, date time.Time) ([]*models.Subscription, error) {
	args := m.Called(ctx, date)
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindBillableByStatus(ctx context.Context, status models.SubscriptionStatus, date time.Time) ([]*models.Subscription, error) {
	args := m.Called(ctx, status, date)
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindExpired(ctx context.Context, status models.SubscriptionStatus, date time.Time) ([]*models.Subscription, error) {
	args := m.Called(ctx, status, date)
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

type MockSubscriptionHistoryRepository struct {
	mock.Mock
}

func (m *MockSubscriptionHistoryRepository) Append(ctx context.Context, entry *models.SubscriptionHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockSubscriptionHistoryRepository) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*models.SubscriptionHistory, error) {
	args := m.Called(ctx, subscriptionID)
	return args.Get(0).([]*models.SubscriptionHistory), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*models.Payment, error) {
	args := m.Called(ctx, subscriptionID)
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) SumSucceededBySubscription(ctx context.Context, subscriptionID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, subscriptionID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) GetByCode(ctx context.Context, code string) (*models.Plan, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) ListActive(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) ListAll(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Plan), args.Error(1)
}

type MockPlanService struct {
	mock.Mock
}

func (m *MockPlanService) GetPlanByID(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanService) GetPlanByCode(ctx context.Context, code string) (*models.Plan, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanService) GetActivePlans(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Plan), args.Error(1)
}

func (m *MockPlanService) GetAllPlans(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Plan), args.Error(1)
}

type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) RecordSuccessfulPayment(ctx context.Context, req *RecordPaymentRequest) (*models.Payment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockBillingService) RecordFailedPayment(ctx context.Context, req *RecordPaymentRequest) (*models.Payment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockBillingService) GetBillingHistory(ctx context.Context, subscriptionID uuid.UUID) ([]*models.Payment, error) {
	args := m.Called(ctx, subscriptionID)
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockBillingService) GetTotalPaidAmount(ctx context.Context, subscriptionID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, subscriptionID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockBillingService) GetPaymentByID(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ChargeResult), args.Error(1)
}

func (m *MockPaymentGateway) Refund(ctx context.Context, externalTxnID string, amount decimal.Decimal) (*RefundResult, error) {
	args := m.Called(ctx, externalTxnID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RefundResult), args.Error(1)
}

func (m *MockPaymentGateway) VerifyWebhookSignature(payload []byte, signature string) bool {
	args := m.Called(payload, signature)
	return args.Bool(0)
}

type MockSubscriptionService struct {
	mock.Mock
}

func (m *MockSubscriptionService) CreateSubscription(ctx context.Context, req *CreateSubscriptionRequest) (*models.Subscription, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionService) GetSubscriptionByID(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionService) GetUserSubscriptions(ctx context.Context, userID uuid.UUID) ([]*models.Subscription, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionService) GetActiveUserSubscriptions(ctx context.Context, userID uuid.UUID) ([]*models.Subscription, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionService) GetSubscriptionHistory(ctx context.Context, subscriptionID uuid.UUID) ([]*models.SubscriptionHistory, error) {
	args := m.Called(ctx, subscriptionID)
	return args.Get(0).([]*models.SubscriptionHistory), args.Error(1)
}

func (m *MockSubscriptionService) UpdateSubscription(ctx context.Context, subscriptionID uuid.UUID, req *UpdateSubscriptionRequest) (*models.Subscription, error) {
	args := m.Called(ctx, subscriptionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionService) CancelSubscription(ctx context.Context, subscriptionID uuid.UUID, req *CancelSubscriptionRequest) (*models.Subscription, error) {
	args := m.Called(ctx, subscriptionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionService) RenewSubscription(ctx context.Context, subscriptionID uuid.UUID, req *RenewSubscriptionRequest) (*models.Subscription, error) {
	args := m.Called(ctx, subscriptionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionService) ActivateSubscription(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionService) ExpireSubscription(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionService) DeleteSubscription(ctx context.Context, subscriptionID uuid.UUID) error {
	args := m.Called(ctx, subscriptionID)
	return args.Error(0)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetPlan(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockCacheService) SetPlan(ctx context.Context, plan *models.Plan, ttl time.Duration) error {
	args := m.Called(ctx, plan, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetPlanByCode(ctx context.Context, code string) (*models.Plan, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockCacheService) SetPlanByCode(ctx context.Context, plan *models.Plan, ttl time.Duration) error {
	args := m.Called(ctx, plan, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeletePlan(ctx context.Context, planID uuid.UUID, code string) error {
	args := m.Called(ctx, planID, code)
	return args.Error(0)
}
