package dto

import (
	"membership-api/internal/model"
	"time"
)

type CreateOrderRequest struct {
	Amount   float64 `json:"amount"` // major units
	Currency string  `json:"currency"`
}

// VerifyPaymentRequest keeps the gateway's snake_case field names accepted alongside camelCase.
type VerifyPaymentRequest struct {
	Kind string `json:"kind"`

	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`

	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`

	PlanName string `json:"planName"`
	Duration string `json:"duration"`
	CallID   string `json:"callId"`

	AmountPaid  int64  `json:"amountPaid"`
	IsBusiness  bool   `json:"isBusiness"`
	CompanyName string `json:"companyName"`
	GSTNumber   string `json:"gstNumber"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	State       string `json:"state"`
	PinCode     string `json:"pinCode"`
}

func (r *VerifyPaymentRequest) ToConfirmation() *model.PaymentConfirmation {
	return &model.PaymentConfirmation{
		Kind:       model.EntitlementKind(r.Kind),
		OrderID:    firstNonEmpty(r.OrderID, r.RazorpayOrderID),
		PaymentID:  firstNonEmpty(r.PaymentID, r.RazorpayPaymentID),
		Signature:  firstNonEmpty(r.Signature, r.RazorpaySignature),
		PlanName:   r.PlanName,
		Duration:   r.Duration,
		CallID:     r.CallID,
		AmountPaid: r.AmountPaid,
		Billing: model.Billing{
			IsBusiness:  r.IsBusiness,
			CompanyName: r.CompanyName,
			GSTNumber:   r.GSTNumber,
			Email:       r.Email,
			Address:     r.Address,
			State:       r.State,
			PinCode:     r.PinCode,
		},
	}
}

type VerifyPaymentResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	OrderID   string `json:"orderId,omitempty"`
	PaymentID string `json:"paymentId,omitempty"`
	Kind      string `json:"kind,omitempty"`
}

type PlanRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Pricing     *model.Pricing `json:"pricing"`
}

type PlanInUseResponse struct {
	Message           string `json:"message"`
	ActiveSubscribers int64  `json:"activeSubscribers"`
}

type CallRequest struct {
	Title       *string    `json:"title"`
	Price       *float64   `json:"price"`
	PublishedAt *time.Time `json:"publishedAt"`
	Scrip       *string    `json:"scrip"`
	Action      *string    `json:"action"`
	Entry       *string    `json:"entry"`
	BuyMore     *string    `json:"buyMore"`
	Target      *string    `json:"target"`
	StopLoss    *string    `json:"stopLoss"`
	Rationale   *string    `json:"rationale"`
}

// CallView is a daily call as seen by one viewer; premium fields may be masked.
type CallView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Price       float64   `json:"price"`
	PublishedAt time.Time `json:"publishedAt"`
	Scrip       string    `json:"scrip"`
	Action      string    `json:"action"`
	Entry       string    `json:"entry"`
	BuyMore     string    `json:"buyMore"`
	Target      string    `json:"target"`
	StopLoss    string    `json:"stopLoss"`
	Rationale   string    `json:"rationale"`
	IsUnlocked  bool      `json:"isUnlocked"`
	IsPurchased bool      `json:"isPurchased"`
}

type ChatMessageRequest struct {
	PlanName string `json:"planName"`
	Content  string `json:"content"`
}

// MembershipView omits the owner and the gateway identifiers.
type MembershipView struct {
	ID         string    `json:"id"`
	PlanName   string    `json:"planName"`
	Duration   string    `json:"duration"`
	StartDate  time.Time `json:"startDate"`
	ExpiryDate time.Time `json:"expiryDate"`
	Status     string    `json:"status"`
	AmountPaid int64     `json:"amountPaid"`
	CreatedAt  time.Time `json:"createdAt"`
}

type AdminMembershipView struct {
	model.Membership
	RenewalCount int `json:"renewalCount"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
