package handler

import (
	"membership-api/internal/dto"
	"membership-api/internal/middleware"
	"membership-api/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

func (h *ChatHandler) Post(c echo.Context) error {
	principal, err := middleware.MustPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.ChatMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	msg, err := h.chatService.Post(c.Request().Context(), principal, &req)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, msg)
}

func (h *ChatHandler) Edit(c echo.Context) error {
	var req dto.ChatMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	msg, err := h.chatService.Edit(c.Request().Context(), c.Param("messageId"), req.Content)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, msg)
}

func (h *ChatHandler) Delete(c echo.Context) error {
	msg, err := h.chatService.Delete(c.Request().Context(), c.Param("messageId"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, msg)
}

func (h *ChatHandler) List(c echo.Context) error {
	principal, err := middleware.MustPrincipal(c)
	if err != nil {
		return err
	}

	msgs, err := h.chatService.List(c.Request().Context(), principal, c.Param("planName"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, msgs)
}
