package handler

import (
	"errors"
	"membership-api/internal/dto"
	"membership-api/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
	}
}

func (h *PlanHandler) List(c echo.Context) error {
	plans, err := h.planService.List(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, plans)
}

func (h *PlanHandler) GetByName(c echo.Context) error {
	plan, err := h.planService.GetByName(c.Request().Context(), c.Param("name"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *PlanHandler) Create(c echo.Context) error {
	var req dto.PlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	plan, err := h.planService.Create(c.Request().Context(), &req)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, plan)
}

func (h *PlanHandler) Update(c echo.Context) error {
	var req dto.PlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	plan, err := h.planService.Update(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *PlanHandler) Delete(c echo.Context) error {
	err := h.planService.Delete(c.Request().Context(), c.Param("id"))

	var inUse *service.PlanInUseError
	if errors.As(err, &inUse) {
		return c.JSON(http.StatusConflict, dto.PlanInUseResponse{
			Message:           "Cannot delete plan while members are actively subscribed",
			ActiveSubscribers: inUse.ActiveSubscribers,
		})
	}
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Plan deleted"})
}
