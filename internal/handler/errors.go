package handler

import (
	"errors"
	"log/slog"
	"membership-api/internal/service"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// httpError maps service errors onto status codes. Unknown errors are logged and hidden.
func httpError(c echo.Context, err error) error {
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, service.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": "))
	case errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrCallNotFound),
		errors.Is(err, service.ErrMessageNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPlanNameTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrMessageDeleted):
		return echo.NewHTTPError(http.StatusBadRequest, "cannot edit a deleted message")
	case errors.Is(err, service.ErrNotSubscribed):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrGateway):
		slog.ErrorContext(c.Request().Context(), "payment gateway call failed", "path", c.Path(), "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, service.ErrGateway.Error())
	}

	slog.ErrorContext(c.Request().Context(), "request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
