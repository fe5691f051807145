package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"transitpass/internal/models"
	"transitpass/internal/services"
)

// WebhookHandlers handles payment gateway callbacks
type WebhookHandlers struct {
	gateway        services.PaymentGateway
	billingService services.BillingService
}

func NewWebhookHandlers(gateway services.PaymentGateway, billingService services.BillingService) *WebhookHandlers {
	return &WebhookHandlers{
		gateway:        gateway,
		billingService: billingService,
	}
}

type gatewayWebhookEvent struct {
	Event          string `json:"event"`
	SubscriptionID string `json:"subscription_id"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	Method         string `json:"method"`
	ExternalTxnID  string `json:"external_txn_id"`
	FailureReason  string `json:"failure_reason"`
	IdempotencyKey string `json:"idempotency_key"`
}

// PaymentWebhook handles POST /webhooks/payments. The gateway confirms charges
// asynchronously; the signature must verify before anything is recorded.
func (h *WebhookHandlers) PaymentWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read request body")
	}

	signature := c.Request().Header.Get("X-Gateway-Signature")
	if signature == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing gateway signature")
	}

	if !h.gateway.VerifyWebhookSignature(body, signature) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid webhook signature")
	}

	var event gatewayWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid webhook payload")
	}

	subscriptionID, err := uuid.Parse(event.SubscriptionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid subscription ID in payload")
	}

	amount, err := decimal.NewFromString(event.Amount)
	if err != nil || amount.IsNegative() {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid amount in payload")
	}

	method, err := models.ParsePaymentMethod(event.Method)
	if err != nil {
		method = models.MethodOther
	}

	req := &services.RecordPaymentRequest{
		SubscriptionID: subscriptionID,
		Amount:         amount,
		Currency:       event.Currency,
		Method:         method,
		ExternalTxnID:  event.ExternalTxnID,
		FailureReason:  event.FailureReason,
		IdempotencyKey: event.IdempotencyKey,
	}

	switch event.Event {
	case "payment.succeeded":
		if _, err := h.billingService.RecordSuccessfulPayment(c.Request().Context(), req); err != nil {
			return httpError(err)
		}
	case "payment.failed":
		if _, err := h.billingService.RecordFailedPayment(c.Request().Context(), req); err != nil {
			return httpError(err)
		}
	default:
		// Unknown events are acknowledged so the gateway stops retrying.
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "success",
		"event":  event.Event,
	})
}
