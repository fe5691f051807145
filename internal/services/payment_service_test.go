package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"transitpass/internal/common"
	"transitpass/internal/models"
)

// PaymentServiceTestSuite defines the test suite
type PaymentServiceTestSuite struct {
	suite.Suite
	mockGateway          *MockPaymentGateway
	mockBillingSvc       *MockBillingService
	mockSubscriptionRepo *MockSubscriptionRepository
	service              PaymentService
	subscription         *models.Subscription
}

func (suite *PaymentServiceTestSuite) SetupTest() {
	suite.mockGateway = &MockPaymentGateway{}
	suite.mockBillingSvc = &MockBillingService{}
	suite.mockSubscriptionRepo = &MockSubscriptionRepository{}
	suite.service = NewPaymentService(suite.mockGateway, suite.mockBillingSvc, suite.mockSubscriptionRepo)
	suite.subscription = &models.Subscription{
		ID:     uuid.New(),
		UserID: uuid.New(),
		PlanID: uuid.New(),
		Status: models.StatusPending,
	}
}

func (suite *PaymentServiceTestSuite) TearDownTest() {
	suite.mockGateway.AssertExpectations(suite.T())
	suite.mockBillingSvc.AssertExpectations(suite.T())
	suite.mockSubscriptionRepo.AssertExpectations(suite.T())
}

func TestPaymentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}

func (suite *PaymentServiceTestSuite) TestProcessPayment_Success() {
	suite.mockSubscriptionRepo.On("GetByID", mock.Anything, suite.subscription.ID).
		Return(suite.subscription, nil).Once()
	suite.mockGateway.On("Charge", mock.Anything, mock.MatchedBy(func(req ChargeRequest) bool {
		return req.SubscriptionID == suite.subscription.ID &&
			req.UserID == suite.subscription.UserID &&
			req.CardToken == "tok_4242"
	})).Return(&ChargeResult{Success: true, ExternalTxnID: "mock-abc"}, nil).Once()

	recorded := &models.Payment{ID: uuid.New(), Status: models.PaymentSucceeded}
	suite.mockBillingSvc.On("RecordSuccessfulPayment", mock.Anything, mock.MatchedBy(func(req *RecordPaymentRequest) bool {
		return req.ExternalTxnID == "mock-abc" && req.IdempotencyKey == "key-1"
	})).Return(recorded, nil).Once()

	payment, err := suite.service.ProcessPayment(context.Background(), &ProcessPaymentRequest{
		SubscriptionID: suite.subscription.ID,
		Amount:         decimal.NewFromInt(49),
		Currency:       "USD",
		Method:         models.MethodCard,
		CardToken:      "tok_4242",
		IdempotencyKey: "key-1",
	})

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), recorded.ID, payment.ID)
}

func (suite *PaymentServiceTestSuite) TestProcessPayment_CardWithoutToken() {
	suite.mockSubscriptionRepo.On("GetByID", mock.Anything, suite.subscription.ID).
		Return(suite.subscription, nil).Once()

	_, err := suite.service.ProcessPayment(context.Background(), &ProcessPaymentRequest{
		SubscriptionID: suite.subscription.ID,
		Amount:         decimal.NewFromInt(49),
		Currency:       "USD",
		Method:         models.MethodCard,
	})

	// Rejected before the gateway is touched, nothing is recorded.
	assert.Error(suite.T(), err)
	assert.Equal(suite.T(), common.KindInvalidOperation, common.KindOf(err))
	assert.Contains(suite.T(), err.Error(), "card token is required")
	suite.mockGateway.AssertNotCalled(suite.T(), "Charge")
}

func (suite *PaymentServiceTestSuite) TestProcessPayment_DeclineRecordsFailure() {
	suite.mockSubscriptionRepo.On("GetByID", mock.Anything, suite.subscription.ID).
		Return(suite.subscription, nil).Once()
	suite.mockGateway.On("Charge", mock.Anything, mock.AnythingOfType("ChargeRequest")).
		Return(&ChargeResult{Success: false, FailureReason: "insufficient funds"}, nil).Once()
	suite.mockBillingSvc.On("RecordFailedPayment", mock.Anything, mock.MatchedBy(func(req *RecordPaymentRequest) bool {
		return req.FailureReason == "insufficient funds"
	})).Return(&models.Payment{Status: models.PaymentFailed}, nil).Once()

	_, err := suite.service.ProcessPayment(context.Background(), &ProcessPaymentRequest{
		SubscriptionID: suite.subscription.ID,
		Amount:         decimal.NewFromInt(49),
		Currency:       "USD",
		Method:         models.MethodWallet,
	})

	assert.Error(suite.T(), err)
	assert.Equal(suite.T(), common.KindPaymentFailed, common.KindOf(err))
	assert.Contains(suite.T(), err.Error(), "insufficient funds")
}

func (suite *PaymentServiceTestSuite) TestProcessPayment_GatewayTransportError() {
	suite.mockSubscriptionRepo.On("GetByID", mock.Anything, suite.subscription.ID).
		Return(suite.subscription, nil).Once()
	suite.mockGateway.On("Charge", mock.Anything, mock.AnythingOfType("ChargeRequest")).
		Return(nil, errors.New("gateway timeout")).Once()
	suite.mockBillingSvc.On("RecordFailedPayment", mock.Anything, mock.MatchedBy(func(req *RecordPaymentRequest) bool {
		return req.FailureReason == "gateway timeout"
	})).Return(&models.Payment{Status: models.PaymentFailed}, nil).Once()

	_, err := suite.service.ProcessPayment(context.Background(), &ProcessPaymentRequest{
		SubscriptionID: suite.subscription.ID,
		Amount:         decimal.NewFromInt(49),
		Currency:       "USD",
		Method:         models.MethodWallet,
	})

	assert.Error(suite.T(), err)
	assert.Equal(suite.T(), common.KindPaymentFailed, common.KindOf(err))
}

func (suite *PaymentServiceTestSuite) TestRefundPayment_NotImplemented() {
	payment := &models.Payment{ID: uuid.New(), Status: models.PaymentSucceeded}
	suite.mockBillingSvc.On("GetPaymentByID", mock.Anything, payment.ID).Return(payment, nil).Once()

	_, err := suite.service.RefundPayment(context.Background(), payment.ID)

	assert.Error(suite.T(), err)
	assert.Equal(suite.T(), common.KindNotImplemented, common.KindOf(err))
}

func (suite *PaymentServiceTestSuite) TestRefundPayment_UnknownPayment() {
	id := uuid.New()
	suite.mockBillingSvc.On("GetPaymentByID", mock.Anything, id).
		Return(nil, common.NotFoundError("payment not found with id: %s", id)).Once()

	_, err := suite.service.RefundPayment(context.Background(), id)

	assert.Error(suite.T(), err)
	assert.Equal(suite.T(), common.KindNotFound, common.KindOf(err))
}

func TestMockPaymentGateway_CardRequiresToken(t *testing.T) {
	gateway := NewMockPaymentGateway("secret")

	result, err := gateway.Charge(context.Background(), ChargeRequest{
		Method:    models.MethodCard,
		CardToken: "",
	})

	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Payment declined by gateway", result.FailureReason)
}

func TestMockPaymentGateway_ChargeSucceeds(t *testing.T) {
	gateway := NewMockPaymentGateway("secret")

	result, err := gateway.Charge(context.Background(), ChargeRequest{
		Method:    models.MethodCard,
		CardToken: "tok_4242",
	})

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, strings.HasPrefix(result.ExternalTxnID, "mock-"))
}

func TestMockPaymentGateway_NonCardMethodsSucceedWithoutToken(t *testing.T) {
	gateway := NewMockPaymentGateway("secret")

	result, err := gateway.Charge(context.Background(), ChargeRequest{Method: models.MethodCash})

	assert.NoError(t, err)
	assert.True(t, result.Success)
}

func TestMockPaymentGateway_VerifyWebhookSignature(t *testing.T) {
	gateway := NewMockPaymentGateway("secret")
	payload := []byte(`{"event":"payment.succeeded"}`)

	// hex(hmac-sha256("secret", payload))
	valid := "7f9ff6a40c74b7d90906be5e23c87826483e8b60c698ebdcc721554646b3f500"

	assert.True(t, gateway.VerifyWebhookSignature(payload, valid))
	assert.False(t, gateway.VerifyWebhookSignature(payload, "deadbeef"))
	assert.False(t, gateway.VerifyWebhookSignature([]byte("tampered"), valid))
}
