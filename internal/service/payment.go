package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"membership-api/internal/client"
	"membership-api/internal/metrics"
	"membership-api/internal/model"
	"membership-api/internal/repository"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DefaultCurrency = "INR"

type VerifyResult struct {
	Kind    model.EntitlementKind
	Message string
	Record  *model.EntitlementRecord
	// Billing is nil when the payment id was already processed and its invoice already went out.
	Billing *model.BillingContext
}

type PaymentService interface {
	CreateOrder(ctx context.Context, principal *model.Principal, amount float64, currency string) (*model.GatewayOrderResult, error)
	VerifyPayment(ctx context.Context, principal *model.Principal, conf *model.PaymentConfirmation) (*VerifyResult, error)
}

type paymentServiceImpl struct {
	razorpayClient client.RazorpayClient
	orderRepo      repository.OrderRepository
	verifier       SignatureVerifier
	resolver       EntitlementResolver
	writer         EntitlementWriter
	now            func() time.Time
}

func NewPaymentService(
	razorpayClient client.RazorpayClient,
	orderRepo repository.OrderRepository,
	verifier SignatureVerifier,
	resolver EntitlementResolver,
	writer EntitlementWriter,
) PaymentService {
	return &paymentServiceImpl{
		razorpayClient: razorpayClient,
		orderRepo:      orderRepo,
		verifier:       verifier,
		resolver:       resolver,
		writer:         writer,
		now:            time.Now,
	}
}

// ToMinorUnits converts a major-unit amount (rupees) to paise without float rounding drift.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (s *paymentServiceImpl) CreateOrder(ctx context.Context, principal *model.Principal, amount float64, currency string) (*model.GatewayOrderResult, error) {
	if amount <= 0 {
		return nil, invalidInput("amount must be positive")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}

	req := &client.CreateOrderRequest{
		Amount:   ToMinorUnits(amount),
		Currency: currency,
		Receipt:  fmt.Sprintf("receipt_order_%d", s.now().Unix()),
	}
	if principal != nil {
		req.Notes = map[string]string{"userId": principal.UserID}
	}

	order, err := s.razorpayClient.CreateOrder(ctx, req)
	if err != nil {
		metrics.GatewayOrders.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	metrics.GatewayOrders.WithLabelValues("created").Inc()

	row := &model.GatewayOrder{
		OrderID:  order.ID,
		Amount:   req.Amount,
		Currency: currency,
		Receipt:  req.Receipt,
	}
	if principal != nil {
		row.UserID = principal.UserID
	}
	if err := s.orderRepo.Create(ctx, nil, row); err != nil {
		// the gateway order exists and stays payable; verification does not depend on this row
		slog.ErrorContext(ctx, "store gateway order", "order_id", order.ID, "error", err)
	}

	return order, nil
}

func (s *paymentServiceImpl) VerifyPayment(ctx context.Context, principal *model.Principal, conf *model.PaymentConfirmation) (*VerifyResult, error) {
	if conf.OrderID == "" || conf.PaymentID == "" || conf.Signature == "" {
		metrics.PaymentVerifications.WithLabelValues("invalid_input").Inc()
		return nil, invalidInput("orderId, paymentId and signature are required")
	}
	if conf.AmountPaid < 0 {
		metrics.PaymentVerifications.WithLabelValues("invalid_input").Inc()
		return nil, invalidInput("amountPaid must not be negative")
	}

	if !s.verifier.Verify(conf.OrderID, conf.PaymentID, conf.Signature) {
		metrics.PaymentVerifications.WithLabelValues("invalid_signature").Inc()
		slog.WarnContext(ctx, "payment signature mismatch",
			"order_id", conf.OrderID, "payment_id", conf.PaymentID, "user_id", principal.UserID)
		return nil, ErrInvalidSignature
	}

	if err := s.checkOrder(ctx, principal, conf); err != nil {
		metrics.PaymentVerifications.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	plan, err := s.resolver.Resolve(ctx, conf, principal)
	if err != nil {
		metrics.PaymentVerifications.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	record, err := s.writer.Commit(ctx, plan)
	if err != nil {
		metrics.PaymentVerifications.WithLabelValues("write_failed").Inc()
		slog.ErrorContext(ctx, "verified payment not persisted",
			"order_id", conf.OrderID, "payment_id", conf.PaymentID, "user_id", principal.UserID,
			"kind", plan.Kind, "amount_paid", conf.AmountPaid, "error", err)
		return nil, &EntitlementWriteError{OrderID: conf.OrderID, PaymentID: conf.PaymentID, Err: err}
	}
	metrics.PaymentVerifications.WithLabelValues("verified").Inc()

	result := &VerifyResult{
		Kind:    plan.Kind,
		Message: successMessage(plan),
		Record:  record,
	}
	if !record.Replayed {
		result.Billing = BuildBillingContext(plan, conf, principal)
	}

	slog.InfoContext(ctx, "payment verified",
		"order_id", conf.OrderID, "payment_id", conf.PaymentID, "user_id", principal.UserID,
		"kind", plan.Kind, "entitlement_id", record.ID(), "replayed", record.Replayed,
		"already_unlocked", record.AlreadyUnlocked)

	return result, nil
}

// checkOrder cross-checks a confirmation against the order this service created.
// Orders created elsewhere are not tracked and pass through.
func (s *paymentServiceImpl) checkOrder(ctx context.Context, principal *model.Principal, conf *model.PaymentConfirmation) error {
	order, err := s.orderRepo.FindByOrderID(ctx, conf.OrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		slog.WarnContext(ctx, "lookup gateway order", "order_id", conf.OrderID, "error", err)
		return nil
	}

	if order.UserID != "" && order.UserID != principal.UserID {
		slog.WarnContext(ctx, "order confirmed by a different user",
			"order_id", conf.OrderID, "payment_id", conf.PaymentID, "order_user_id", order.UserID, "user_id", principal.UserID)
		return invalidInput("order %s does not belong to the caller", conf.OrderID)
	}

	if conf.AmountPaid != order.Amount {
		metrics.PaymentAmountMismatches.Inc()
		slog.WarnContext(ctx, "amount paid differs from order amount",
			"order_id", conf.OrderID, "payment_id", conf.PaymentID, "amount_paid", conf.AmountPaid, "order_amount", order.Amount)
	}

	return nil
}

func successMessage(plan *model.EntitlementPlan) string {
	if plan.Kind == model.KindUnlock {
		return fmt.Sprintf("%s unlocked successfully", plan.Unlock.CallTitle)
	}
	return fmt.Sprintf("%s membership activated successfully", plan.Membership.PlanName)
}

// BuildBillingContext snapshots everything the invoice needs so dispatch never touches the request.
func BuildBillingContext(plan *model.EntitlementPlan, conf *model.PaymentConfirmation, principal *model.Principal) *model.BillingContext {
	bc := &model.BillingContext{
		Kind:           plan.Kind,
		OrderID:        plan.OrderID,
		PaymentID:      plan.PaymentID,
		AmountPaid:     plan.AmountPaid,
		RecipientEmail: principal.Email,
		RecipientName:  principal.Name,
		Billing:        conf.Billing,
	}
	if conf.Billing.Email != "" {
		bc.RecipientEmail = conf.Billing.Email
	}
	if conf.Billing.IsBusiness && conf.Billing.CompanyName != "" {
		bc.RecipientName = conf.Billing.CompanyName
	}
	if !conf.Billing.IsBusiness {
		bc.Billing.GSTNumber = ""
	}

	switch plan.Kind {
	case model.KindUnlock:
		now := time.Now()
		bc.CallTitle = plan.Unlock.CallTitle
		bc.ItemName = "Unlock: " + plan.Unlock.CallTitle
		bc.DurationLabel = "One-Time Unlock"
		bc.StartDate = now
		bc.ExpiryDate = now
	case model.KindMembership:
		bc.PlanName = plan.Membership.PlanName
		bc.ItemName = plan.Membership.PlanName
		bc.DurationLabel = DurationLabel(plan.Membership.Duration)
		bc.StartDate = plan.Membership.StartDate
		bc.ExpiryDate = plan.Membership.ExpiryDate
	}

	return bc
}

func DurationLabel(duration string) string {
	switch duration {
	case "quarterly":
		return "Quarterly"
	case "half-yearly":
		return "Half Yearly"
	case "yearly":
		return "Yearly"
	default:
		return "Monthly"
	}
}

// IsEntitlementWriteError unwraps a persist failure that followed a valid signature.
func IsEntitlementWriteError(err error) (*EntitlementWriteError, bool) {
	var writeErr *EntitlementWriteError
	if errors.As(err, &writeErr) {
		return writeErr, true
	}
	return nil, false
}
