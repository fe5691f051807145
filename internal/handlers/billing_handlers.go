package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"transitpass/internal/models"
	"transitpass/internal/services"
)

// BillingHandlers handles HTTP requests for payments and billing history
type BillingHandlers struct {
	paymentService services.PaymentService
	billingService services.BillingService
}

func NewBillingHandlers(paymentService services.PaymentService, billingService services.BillingService) *BillingHandlers {
	return &BillingHandlers{
		paymentService: paymentService,
		billingService: billingService,
	}
}

// ProcessPayment handles POST /payments
func (h *BillingHandlers) ProcessPayment(c echo.Context) error {
	var req struct {
		SubscriptionID string `json:"subscription_id"`
		Amount         string `json:"amount"`
		Currency       string `json:"currency"`
		Method         string `json:"method"`
		CardToken      string `json:"card_token"`
		IdempotencyKey string `json:"idempotency_key"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	subscriptionID, err := parseUUID(req.SubscriptionID)
	if err != nil {
		return err
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid amount")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return echo.NewHTTPError(http.StatusBadRequest, "Amount must be positive")
	}
	if req.Currency == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Currency is required")
	}

	method, err := models.ParsePaymentMethod(req.Method)
	if err != nil {
		return httpError(err)
	}

	payment, err := h.paymentService.ProcessPayment(c.Request().Context(), &services.ProcessPaymentRequest{
		SubscriptionID: subscriptionID,
		Amount:         amount,
		Currency:       req.Currency,
		Method:         method,
		CardToken:      req.CardToken,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, payment)
}

// GetPayment handles GET /payments/:id
func (h *BillingHandlers) GetPayment(c echo.Context) error {
	paymentID, err := parseUUID(c.Param("id"))
	if err != nil {
		return err
	}

	payment, err := h.paymentService.GetPaymentByID(c.Request().Context(), paymentID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, payment)
}

// RefundPayment handles POST /payments/:id/refund
func (h *BillingHandlers) RefundPayment(c echo.Context) error {
	paymentID, err := parseUUID(c.Param("id"))
	if err != nil {
		return err
	}

	payment, err := h.paymentService.RefundPayment(c.Request().Context(), paymentID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, payment)
}

// GetBillingHistory handles GET /subscriptions/:id/billing-history
func (h *BillingHandlers) GetBillingHistory(c echo.Context) error {
	subscriptionID, err := parseUUID(c.Param("id"))
	if err != nil {
		return err
	}

	payments, err := h.billingService.GetBillingHistory(c.Request().Context(), subscriptionID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"payments": payments})
}

// GetTotalPaid handles GET /subscriptions/:id/total-paid
func (h *BillingHandlers) GetTotalPaid(c echo.Context) error {
	subscriptionID, err := parseUUID(c.Param("id"))
	if err != nil {
		return err
	}

	total, err := h.billingService.GetTotalPaidAmount(c.Request().Context(), subscriptionID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"subscription_id": subscriptionID,
		"total_paid":      total,
	})
}
