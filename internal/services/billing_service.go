package services

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"transitpass/internal/common"
	"transitpass/internal/models"
	"transitpass/internal/repositories"
)

// BillingService is the payment ledger. Successful payments and the
// subscription's cumulative amount paid are written in one transaction;
// idempotency keys make recording at-most-once under retries.
type BillingService interface {
	RecordSuccessfulPayment(ctx context.Context, req *RecordPaymentRequest) (*models.Payment, error)
	RecordFailedPayment(ctx context.Context, req *RecordPaymentRequest) (*models.Payment, error)
	GetBillingHistory(ctx context.Context, subscriptionID uuid.UUID) ([]*models.Payment, error)
	GetPaymentByID(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
	GetTotalPaidAmount(ctx context.Context, subscriptionID uuid.UUID) (decimal.Decimal, error)
}

type RecordPaymentRequest struct {
	SubscriptionID uuid.UUID
	Amount         decimal.Decimal
	Currency       string
	Method         models.PaymentMethod
	ExternalTxnID  string
	FailureReason  string
	IdempotencyKey string
}

type billingService struct {
	db               repositories.Database
	paymentRepo      repositories.PaymentRepository
	subscriptionRepo repositories.SubscriptionRepository
}

func NewBillingService(
	db repositories.Database,
	paymentRepo repositories.PaymentRepository,
	subscriptionRepo repositories.SubscriptionRepository,
) BillingService {
	return &billingService{
		db:               db,
		paymentRepo:      paymentRepo,
		subscriptionRepo: subscriptionRepo,
	}
}

// RecordSuccessfulPayment writes a SUCCEEDED ledger entry and adds the amount
// to the subscription's amountPaid. A replayed idempotency key returns the
// original record unchanged; nothing is double-counted.
func (s *billingService) RecordSuccessfulPayment(ctx context.Context, req *RecordPaymentRequest) (*models.Payment, error) {
	log.Printf("Recording successful payment for subscription: %s", req.SubscriptionID)

	if req.IdempotencyKey != "" {
		existing, err := s.paymentRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err == nil {
			log.Printf("Payment already recorded with idempotency key: %s", req.IdempotencyKey)
			return existing, nil
		}
		if common.KindOf(err) != common.KindNotFound {
			return nil, err
		}
	}

	payment := &models.Payment{
		ID:             uuid.New(),
		SubscriptionID: req.SubscriptionID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Status:         models.PaymentSucceeded,
		Method:         req.Method,
		Type:           models.TypeInitial, // caller context may refine this
		PaymentDate:    common.Today(),
	}
	if req.ExternalTxnID != "" {
		payment.ExternalTxnID = &req.ExternalTxnID
	}
	if req.IdempotencyKey != "" {
		payment.IdempotencyKey = &req.IdempotencyKey
	}

	err := repositories.RunInTx(ctx, s.db, func(ctx context.Context) error {
		subscription, err := s.subscriptionRepo.GetByIDForUpdate(ctx, req.SubscriptionID)
		if err != nil {
			return err
		}

		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return err
		}

		subscription.AmountPaid = subscription.AmountPaid.Add(req.Amount)
		return s.subscriptionRepo.Update(ctx, subscription)
	})
	if errors.Is(err, repositories.ErrDuplicateIdempotencyKey) {
		// Lost the race against a concurrent retry with the same key; the
		// unique constraint guarantees exactly one record exists.
		return s.paymentRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
	}
	if err != nil {
		return nil, err
	}

	log.Printf("Payment recorded: %s for subscription: %s", payment.ID, req.SubscriptionID)
	return payment, nil
}

// RecordFailedPayment writes a FAILED ledger entry. amountPaid is untouched.
func (s *billingService) RecordFailedPayment(ctx context.Context, req *RecordPaymentRequest) (*models.Payment, error) {
	log.Printf("Recording failed payment for subscription: %s, reason: %s", req.SubscriptionID, req.FailureReason)

	if _, err := s.subscriptionRepo.GetByID(ctx, req.SubscriptionID); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ID:             uuid.New(),
		SubscriptionID: req.SubscriptionID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Status:         models.PaymentFailed,
		Method:         req.Method,
		Type:           models.TypeInitial,
		PaymentDate:    common.Today(),
	}
	if req.FailureReason != "" {
		payment.FailureReason = &req.FailureReason
	}
	if req.IdempotencyKey != "" {
		payment.IdempotencyKey = &req.IdempotencyKey
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		if errors.Is(err, repositories.ErrDuplicateIdempotencyKey) {
			return s.paymentRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		}
		return nil, err
	}
	return payment, nil
}

func (s *billingService) GetBillingHistory(ctx context.Context, subscriptionID uuid.UUID) ([]*models.Payment, error) {
	if _, err := s.subscriptionRepo.GetByID(ctx, subscriptionID); err != nil {
		return nil, err
	}
	return s.paymentRepo.ListBySubscription(ctx, subscriptionID)
}

func (s *billingService) GetPaymentByID(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	return s.paymentRepo.GetByID(ctx, paymentID)
}

// GetTotalPaidAmount sums SUCCEEDED payments; zero when none exist.
func (s *billingService) GetTotalPaidAmount(ctx context.Context, subscriptionID uuid.UUID) (decimal.Decimal, error) {
	return s.paymentRepo.SumSucceededBySubscription(ctx, subscriptionID)
}
