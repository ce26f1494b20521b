package client

import (
	"context"
	"fmt"
	"membership-api/internal/config"
	"membership-api/internal/model"

	"github.com/go-resty/resty/v2"
)

type CreateOrderRequest struct {
	Amount   int64             `json:"amount"` // minor units
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type RazorpayClient interface {
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*model.GatewayOrderResult, error)
}

type razorpayClientImpl struct {
	http *resty.Client
}

func NewRazorpayClient(cfg *config.Razorpay) RazorpayClient {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseApiURL).
		SetBasicAuth(cfg.KeyID, cfg.KeySecret).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &razorpayClientImpl{
		http: httpClient,
	}
}

func (c *razorpayClientImpl) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*model.GatewayOrderResult, error) {
	var (
		result  model.GatewayOrderResult
		failure model.GatewayError
	)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&failure).
		Post("/v1/orders")
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("razorpay create order: status %d: %s %s",
			resp.StatusCode(), failure.Error.Code, failure.Error.Description)
	}

	if result.ID == "" {
		return nil, fmt.Errorf("razorpay create order: empty order id in response")
	}

	return &result, nil
}
