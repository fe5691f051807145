package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"transitpass/internal/services"
)

// SubscriptionHandlers handles HTTP requests for subscriptions
type SubscriptionHandlers struct {
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandlers(subscriptionService services.SubscriptionService) *SubscriptionHandlers {
	return &SubscriptionHandlers{subscriptionService: subscriptionService}
}

func parseUUID(idStr string) (uuid.UUID, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid UUID format")
	}
	return id, nil
}

// CreateSubscription handles POST /subscriptions
func (h *SubscriptionHandlers) CreateSubscription(c echo.Context) error {
	var req struct {
		UserID           string  `json:"user_id"`
		PlanID           string  `json:"plan_id"`
		AutoRenewEnabled *bool   `json:"auto_renew_enabled"`
		CardToken        *string `json:"card_token"`
		CardExpMonth     *int    `json:"card_exp_month"`
		CardExpYear      *int    `json:"card_exp_year"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	userID, err := parseUUID(req.UserID)
	if err != nil {
		return err
	}
	planID, err := parseUUID(req.PlanID)
	if err != nil {
		return err
	}

	// Auto-renew defaults to on when the field is omitted.
	autoRenew := true
	if req.AutoRenewEnabled != nil {
		autoRenew = *req.AutoRenewEnabled
	}

	subscription, err := h.subscriptionService.CreateSubscription(c.Request().Context(), &services.CreateSubscriptionRequest{
		UserID:           userID,
		PlanID:           planID,
		AutoRenewEnabled: autoRenew,
		CardToken:        req.CardToken,
		CardExpMonth:     req.CardExpMonth,
		CardExpYear:      req.CardExpYear,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, subscription)
}

// GetSubscription handles GET /subscriptions/:id
func (h *SubscriptionHandlers) GetSubscription(c echo.Context) error {
	subscriptionID, err := parseUUID(c.Param("id"))
	if err != nil {
		return err
	}

	subscription, err := h.subscriptionService.GetSubscriptionByID(c.Request().Context(), subscriptionID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, subscription)
}

// GetUserSubscriptions handles GET /users/:userId/subscriptions
// ?active=true narrows to ACTIVE subscriptions only.
func (h *SubscriptionHandlers) GetUserSubscriptions(c echo.Context) error {
	userID, err := parseUUID(c.Param("userId"))
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if c.QueryParam("active") == "true" {
		subscriptions, err := h.subscriptionService.GetActiveUserSubscriptions(ctx, userID)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"subscriptions": subscriptions})
	}

	subscriptions, err := h.subscriptionService.GetUserSubscriptions(ctx, userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"subscriptions": subscriptions})
}

// GetSubscriptionHistory handles GET /subscriptions/:id/history
func (h *SubscriptionHandlers) GetSubscriptionHistory(c echo.Context) error {
	subscriptionID, err := parseUUID(c.Param("id"))
	if err != nil {
		return err
	}

	history, err := h.subscriptionService.GetSubscriptionHistory(c.Request().Context(), subscriptionID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"history": history})
}

// UpdateSubscription handles PUT /subscriptions/:id
func (h *SubscriptionHandlers) UpdateSubscription(c echo.Context) error {
	subscriptionID, err := parseUUID(c.Param("id"))
	if err != nil {
		return err
	}

	var req struct {
		AutoRenewEnabled *bool   `json:"auto_renew_enabled"`
		CardToken        *string `json:"card_token"`
		CardExpMonth     *int    `json:"card_exp_month"`
		CardExpYear      *int    `json:"card_exp_year"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	subscription, err := h.subscriptionService.UpdateSubscription(c.Request().Context(), subscriptionID, &services.UpdateSubscriptionRequest{
		AutoRenewEnabled: req.AutoRenewEnabled,
		CardToken:        req.CardToken,
		CardExpMonth:     req.CardExpMonth,
		CardExpYear:      req.CardExpYear,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, subscription)
}

// CancelSubscription handles POST /subscriptions/:id/cancel
func (h *SubscriptionHandlers) CancelSubscription(c echo.Context) error {
	subscriptionID, err := parseUUID(c.Param("id"))
	if err != nil {
		return err
	}

	var req struct {
		Reason    string `json:"reason"`
		Immediate bool   `json:"immediate"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	subscription, err := h.subscriptionService.CancelSubscription(c.Request().Context(), subscriptionID, &services.CancelSubscriptionRequest{
		Reason:    req.Reason,
		Immediate: req.Immediate,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, subscription)
}

// RenewSubscription handles POST /subscriptions/:id/renew
func (h *SubscriptionHandlers) RenewSubscription(c echo.Context) error {
	subscriptionID, err := parseUUID(c.Param("id"))
	if err != nil {
		return err
	}

	var req struct {
		PlanID    *string `json:"plan_id"`
		CardToken *string `json:"card_token"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	renewReq := &services.RenewSubscriptionRequest{CardToken: req.CardToken}
	if req.PlanID != nil {
		planID, err := parseUUID(*req.PlanID)
		if err != nil {
			return err
		}
		renewReq.PlanID = &planID
	}

	subscription, err := h.subscriptionService.RenewSubscription(c.Request().Context(), subscriptionID, renewReq)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, subscription)
}

// ActivateSubscription handles POST /subscriptions/:id/activate
func (h *SubscriptionHandlers) ActivateSubscription(c echo.Context) error {
	subscriptionID, err := parseUUID(c.Param("id"))
	if err != nil {
		return err
	}

	subscription, err := h.subscriptionService.ActivateSubscription(c.Request().Context(), subscriptionID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, subscription)
}

// ExpireSubscription handles POST /subscriptions/:id/expire
func (h *SubscriptionHandlers) ExpireSubscription(c echo.Context) error {
	subscriptionID, err := parseUUID(c.Param("id"))
	if err != nil {
		return err
	}

	subscription, err := h.subscriptionService.ExpireSubscription(c.Request().Context(), subscriptionID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, subscription)
}

// DeleteSubscription handles DELETE /subscriptions/:id
func (h *SubscriptionHandlers) DeleteSubscription(c echo.Context) error {
	subscriptionID, err := parseUUID(c.Param("id"))
	if err != nil {
		return err
	}

	if err := h.subscriptionService.DeleteSubscription(c.Request().Context(), subscriptionID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
