package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"transitpass/internal/common"
	"transitpass/internal/services"
)

// JobHandlers exposes manual triggers for the batch sweeps, for operations
// teams and diagnostics. The scheduler drives the same service daily.
type JobHandlers struct {
	renewalService services.RenewalService
}

func NewJobHandlers(renewalService services.RenewalService) *JobHandlers {
	return &JobHandlers{renewalService: renewalService}
}

// sweepDate resolves an optional ?date=YYYY-MM-DD override, defaulting to today.
func sweepDate(c echo.Context) (time.Time, error) {
	dateStr := c.QueryParam("date")
	if dateStr == "" {
		return common.Today(), nil
	}
	date, err := time.Parse(time.DateOnly, dateStr)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
	}
	return date, nil
}

// RunRenewals handles POST /jobs/renewals/run
func (h *JobHandlers) RunRenewals(c echo.Context) error {
	date, err := sweepDate(c)
	if err != nil {
		return err
	}

	count, err := h.renewalService.ProcessAutomaticRenewals(c.Request().Context(), date)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"renewed": count})
}

// RunExpirations handles POST /jobs/expirations/run
func (h *JobHandlers) RunExpirations(c echo.Context) error {
	date, err := sweepDate(c)
	if err != nil {
		return err
	}

	count, err := h.renewalService.ExpireSubscriptions(c.Request().Context(), date)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"expired": count})
}

// PreviewRenewals handles GET /jobs/renewals/preview
func (h *JobHandlers) PreviewRenewals(c echo.Context) error {
	date, err := sweepDate(c)
	if err != nil {
		return err
	}

	ids, err := h.renewalService.GetSubscriptionsToRenew(c.Request().Context(), date)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"subscription_ids": ids})
}
