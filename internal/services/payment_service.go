package services

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"transitpass/internal/common"
	"transitpass/internal/models"
	"transitpass/internal/repositories"
)

// PaymentService orchestrates the gateway and the internal billing ledger.
type PaymentService interface {
	ProcessPayment(ctx context.Context, req *ProcessPaymentRequest) (*models.Payment, error)
	RefundPayment(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
	GetPaymentsBySubscriptionID(ctx context.Context, subscriptionID uuid.UUID) ([]*models.Payment, error)
	GetPaymentByID(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
}

type ProcessPaymentRequest struct {
	SubscriptionID uuid.UUID
	Amount         decimal.Decimal
	Currency       string
	Method         models.PaymentMethod
	CardToken      string
	IdempotencyKey string
}

type paymentService struct {
	gateway          PaymentGateway
	billingSvc       BillingService
	subscriptionRepo repositories.SubscriptionRepository
}

func NewPaymentService(
	gateway PaymentGateway,
	billingSvc BillingService,
	subscriptionRepo repositories.SubscriptionRepository,
) PaymentService {
	return &paymentService{
		gateway:          gateway,
		billingSvc:       billingSvc,
		subscriptionRepo: subscriptionRepo,
	}
}

// ProcessPayment charges the gateway and records the outcome. A gateway
// failure is durably recorded as a FAILED payment before the error is
// raised.
func (s *paymentService) ProcessPayment(ctx context.Context, req *ProcessPaymentRequest) (*models.Payment, error) {
	log.Printf("Processing payment for subscription: %s", req.SubscriptionID)

	subscription, err := s.subscriptionRepo.GetByID(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}

	if req.Method == models.MethodCard && req.CardToken == "" {
		return nil, common.InvalidOperationError("card token is required for card payments")
	}

	result, err := s.gateway.Charge(ctx, ChargeRequest{
		SubscriptionID: subscription.ID,
		UserID:         subscription.UserID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Method:         req.Method,
		CardToken:      req.CardToken,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		// Gateway timeouts and transport errors surface as payment
		// failures; retry policy belongs to the gateway adapter.
		result = &ChargeResult{Success: false, FailureReason: err.Error()}
	}

	if result.Success {
		log.Printf("Payment accepted by gateway, external transaction: %s", result.ExternalTxnID)
		return s.billingSvc.RecordSuccessfulPayment(ctx, &RecordPaymentRequest{
			SubscriptionID: subscription.ID,
			Amount:         req.Amount,
			Currency:       req.Currency,
			Method:         req.Method,
			ExternalTxnID:  result.ExternalTxnID,
			IdempotencyKey: req.IdempotencyKey,
		})
	}

	failureReason := result.FailureReason
	if failureReason == "" {
		failureReason = "Payment declined by gateway"
	}
	if _, recordErr := s.billingSvc.RecordFailedPayment(ctx, &RecordPaymentRequest{
		SubscriptionID: subscription.ID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Method:         req.Method,
		FailureReason:  failureReason,
		IdempotencyKey: req.IdempotencyKey,
	}); recordErr != nil {
		return nil, recordErr
	}

	return nil, common.PaymentFailedError("%s", failureReason)
}

// RefundPayment is recognized but not implemented in this scope. The payment
// lookup runs first so absent payments still report NotFound.
func (s *paymentService) RefundPayment(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	log.Printf("Refund requested for payment: %s", paymentID)

	if _, err := s.billingSvc.GetPaymentByID(ctx, paymentID); err != nil {
		return nil, err
	}
	return nil, common.NotImplementedError("refund processing is not implemented yet")
}

func (s *paymentService) GetPaymentsBySubscriptionID(ctx context.Context, subscriptionID uuid.UUID) ([]*models.Payment, error) {
	return s.billingSvc.GetBillingHistory(ctx, subscriptionID)
}

func (s *paymentService) GetPaymentByID(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	return s.billingSvc.GetPaymentByID(ctx, paymentID)
}
