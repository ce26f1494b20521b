package handler

import (
	"membership-api/internal/middleware"
	"membership-api/internal/service"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type MembershipHandler struct {
	membershipService service.MembershipService
}

func NewMembershipHandler(membershipService service.MembershipService) *MembershipHandler {
	return &MembershipHandler{
		membershipService: membershipService,
	}
}

func (h *MembershipHandler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()

	principal, err := middleware.MustPrincipal(c)
	if err != nil {
		return err
	}

	latest, _ := strconv.ParseBool(c.QueryParam("latest"))

	memberships, err := h.membershipService.ListForUser(ctx, principal.UserID, latest)
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, memberships)
}

func (h *MembershipHandler) ListAll(c echo.Context) error {
	ctx := c.Request().Context()

	memberships, err := h.membershipService.ListAll(ctx)
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, memberships)
}
