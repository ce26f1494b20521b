package handler

import (
	"errors"
	"log/slog"
	"membership-api/internal/dto"
	"membership-api/internal/middleware"
	"membership-api/internal/model"
	"membership-api/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// InvoiceQueue receives billing jobs after the client has its response.
type InvoiceQueue interface {
	Enqueue(bc *model.BillingContext) bool
}

type PaymentHandler struct {
	paymentService service.PaymentService
	invoices       InvoiceQueue
}

func NewPaymentHandler(paymentService service.PaymentService, invoices InvoiceQueue) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		invoices:       invoices,
	}
}

func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	principal, err := middleware.MustPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	order, err := h.paymentService.CreateOrder(ctx, principal, req.Amount, req.Currency)
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, order)
}

func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	ctx := c.Request().Context()

	principal, err := middleware.MustPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.VerifyPaymentResponse{Status: statusFailure, Message: "invalid req body"})
	}
	conf := req.ToConfirmation()

	result, err := h.paymentService.VerifyPayment(ctx, principal, conf)
	if err != nil {
		if writeErr, ok := service.IsEntitlementWriteError(err); ok {
			return c.JSON(http.StatusInternalServerError, dto.VerifyPaymentResponse{
				Status:    statusFailure,
				Message:   "Payment was received but could not be activated. Please contact support with your payment id.",
				OrderID:   writeErr.OrderID,
				PaymentID: writeErr.PaymentID,
			})
		}
		if errors.Is(err, service.ErrInvalidSignature) {
			return c.JSON(http.StatusBadRequest, dto.VerifyPaymentResponse{
				Status:  statusFailure,
				Message: "Invalid signature",
				OrderID: conf.OrderID,
			})
		}
		if errors.Is(err, service.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, dto.VerifyPaymentResponse{
				Status:  statusFailure,
				Message: err.Error(),
				OrderID: conf.OrderID,
			})
		}
		return httpError(c, err)
	}

	if err := c.JSON(http.StatusCreated, dto.VerifyPaymentResponse{
		Status:  statusSuccess,
		Message: result.Message,
		OrderID: conf.OrderID,
		Kind:    string(result.Kind),
	}); err != nil {
		return err
	}

	// response is written; the invoice tail runs detached from this request
	if result.Billing != nil && h.invoices != nil {
		if !h.invoices.Enqueue(result.Billing) {
			slog.WarnContext(ctx, "invoice not queued", "order_id", conf.OrderID, "payment_id", conf.PaymentID)
		}
	}

	return nil
}
