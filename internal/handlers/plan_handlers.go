package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"transitpass/internal/services"
)

// PlanHandlers handles HTTP requests for the plan catalog
type PlanHandlers struct {
	planService services.PlanService
}

func NewPlanHandlers(planService services.PlanService) *PlanHandlers {
	return &PlanHandlers{planService: planService}
}

// ListActivePlans handles GET /plans
func (h *PlanHandlers) ListActivePlans(c echo.Context) error {
	plans, err := h.planService.GetActivePlans(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"plans": plans})
}

// ListAllPlans handles GET /plans/all
func (h *PlanHandlers) ListAllPlans(c echo.Context) error {
	plans, err := h.planService.GetAllPlans(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"plans": plans})
}

// GetPlan handles GET /plans/:id
func (h *PlanHandlers) GetPlan(c echo.Context) error {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid UUID format")
	}

	plan, err := h.planService.GetPlanByID(c.Request().Context(), planID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, plan)
}

// GetPlanByCode handles GET /plans/code/:code
func (h *PlanHandlers) GetPlanByCode(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Plan code is required")
	}

	plan, err := h.planService.GetPlanByCode(c.Request().Context(), code)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, plan)
}
