package handler

import (
	"membership-api/internal/dto"
	"membership-api/internal/middleware"
	"membership-api/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type CallHandler struct {
	callService service.CallService
}

func NewCallHandler(callService service.CallService) *CallHandler {
	return &CallHandler{
		callService: callService,
	}
}

// List serves anonymous and signed-in viewers; premium fields are masked per viewer.
func (h *CallHandler) List(c echo.Context) error {
	calls, err := h.callService.ListForViewer(c.Request().Context(), middleware.PrincipalFrom(c))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, calls)
}

func (h *CallHandler) ListAll(c echo.Context) error {
	calls, err := h.callService.ListAll(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, calls)
}

func (h *CallHandler) Create(c echo.Context) error {
	var req dto.CallRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	call, err := h.callService.Create(c.Request().Context(), &req)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, call)
}

func (h *CallHandler) Update(c echo.Context) error {
	var req dto.CallRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	call, err := h.callService.Update(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, call)
}

func (h *CallHandler) Delete(c echo.Context) error {
	if err := h.callService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Call deleted"})
}
