package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"membership-api/internal/metrics"
	"membership-api/internal/model"
	"membership-api/internal/repository"
	"strings"
	"time"

	"gorm.io/gorm"
)

// UnknownCallTitle stands in when the unlocked call cannot be found.
const UnknownCallTitle = "Daily Market Call"

var durationMonths = map[string]struct {
	label  string
	months int
}{
	"monthly":     {"monthly", 1},
	"quarterly":   {"quarterly", 3},
	"half-yearly": {"half-yearly", 6},
	"halfyearly":  {"half-yearly", 6},
	"half_yearly": {"half-yearly", 6},
	"half yearly": {"half-yearly", 6},
	"yearly":      {"yearly", 12},
}

// NormalizeDuration maps a client duration to its canonical label and month offset.
// Unknown or empty values fall back to one month.
func NormalizeDuration(raw string) (string, int) {
	d, ok := durationMonths[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "monthly", 1
	}
	return d.label, d.months
}

// ComputeExpiry adds calendar months; day overflow rolls forward (Feb 29 + 12 months = Mar 1).
func ComputeExpiry(start time.Time, duration string) time.Time {
	_, months := NormalizeDuration(duration)
	return start.AddDate(0, months, 0)
}

// ResolveKind makes the path discriminator explicit. Without a kind, a call id selects the unlock path.
func ResolveKind(conf *model.PaymentConfirmation) (model.EntitlementKind, error) {
	switch conf.Kind {
	case model.KindUnlock:
		if conf.CallID == "" {
			return "", invalidInput("callId is required to unlock a call")
		}
		return model.KindUnlock, nil
	case model.KindMembership:
		if conf.CallID != "" {
			return "", invalidInput("callId is not allowed for a membership payment")
		}
		if conf.PlanName == "" {
			return "", invalidInput("planName is required for a membership payment")
		}
		return model.KindMembership, nil
	case "":
		if conf.CallID != "" {
			return model.KindUnlock, nil
		}
		if conf.PlanName == "" {
			return "", invalidInput("either planName or callId is required")
		}
		return model.KindMembership, nil
	default:
		return "", invalidInput("unknown kind %q", conf.Kind)
	}
}

type EntitlementResolver interface {
	Resolve(ctx context.Context, conf *model.PaymentConfirmation, principal *model.Principal) (*model.EntitlementPlan, error)
}

type entitlementResolverImpl struct {
	callRepo repository.CallRepository
	now      func() time.Time
}

func NewEntitlementResolver(callRepo repository.CallRepository) EntitlementResolver {
	return &entitlementResolverImpl{
		callRepo: callRepo,
		now:      time.Now,
	}
}

func (r *entitlementResolverImpl) Resolve(ctx context.Context, conf *model.PaymentConfirmation, principal *model.Principal) (*model.EntitlementPlan, error) {
	kind, err := ResolveKind(conf)
	if err != nil {
		return nil, err
	}

	plan := &model.EntitlementPlan{
		Kind:       kind,
		UserID:     principal.UserID,
		UserEmail:  principal.Email,
		UserName:   principal.Name,
		OrderID:    conf.OrderID,
		PaymentID:  conf.PaymentID,
		AmountPaid: conf.AmountPaid,
	}

	if kind == model.KindUnlock {
		title := UnknownCallTitle
		call, err := r.callRepo.FindByID(ctx, conf.CallID)
		switch {
		case err == nil:
			title = call.Title
		case errors.Is(err, gorm.ErrRecordNotFound):
			slog.WarnContext(ctx, "unlocking unknown call", "call_id", conf.CallID, "order_id", conf.OrderID)
		default:
			slog.WarnContext(ctx, "lookup call title", "call_id", conf.CallID, "error", err)
		}
		plan.Unlock = &model.UnlockGrant{CallID: conf.CallID, CallTitle: title}
		return plan, nil
	}

	label, _ := NormalizeDuration(conf.Duration)
	start := r.now()
	plan.Membership = &model.MembershipGrant{
		PlanName:   conf.PlanName,
		Duration:   label,
		StartDate:  start,
		ExpiryDate: ComputeExpiry(start, label),
	}
	return plan, nil
}

type EntitlementWriter interface {
	Commit(ctx context.Context, plan *model.EntitlementPlan) (*model.EntitlementRecord, error)
}

type entitlementWriterImpl struct {
	db               *gorm.DB
	membershipRepo   repository.MembershipRepository
	unlockRepo       repository.UnlockRepository
	orderRepo        repository.OrderRepository
	paymentEventRepo repository.PaymentEventRepository
}

func NewEntitlementWriter(
	db *gorm.DB,
	membershipRepo repository.MembershipRepository,
	unlockRepo repository.UnlockRepository,
	orderRepo repository.OrderRepository,
	paymentEventRepo repository.PaymentEventRepository,
) EntitlementWriter {
	return &entitlementWriterImpl{
		db:               db,
		membershipRepo:   membershipRepo,
		unlockRepo:       unlockRepo,
		orderRepo:        orderRepo,
		paymentEventRepo: paymentEventRepo,
	}
}

// Commit persists the entitlement, the payment ledger row and the order status in one transaction.
// A payment id already in the ledger returns the recorded entitlement untouched.
func (w *entitlementWriterImpl) Commit(ctx context.Context, plan *model.EntitlementPlan) (*model.EntitlementRecord, error) {
	var record *model.EntitlementRecord

	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		replay, err := w.replay(ctx, tx, plan.PaymentID)
		if err != nil {
			return err
		}
		if replay != nil {
			record = replay
			return nil
		}

		switch plan.Kind {
		case model.KindMembership:
			record, err = w.commitMembership(ctx, tx, plan)
		case model.KindUnlock:
			record, err = w.commitUnlock(ctx, tx, plan)
		default:
			err = fmt.Errorf("unknown entitlement kind %q", plan.Kind)
		}
		if err != nil {
			return err
		}

		if _, err := w.orderRepo.MarkPaid(ctx, tx, plan.OrderID); err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}

		return w.paymentEventRepo.MarkProcessed(ctx, tx, &model.PaymentEvent{
			PaymentID:     plan.PaymentID,
			OrderID:       plan.OrderID,
			Kind:          string(plan.Kind),
			EntitlementID: record.ID(),
		})
	})

	// a concurrent submission of the same payment won the race; hand back what it wrote
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		replay, replayErr := w.replay(ctx, nil, plan.PaymentID)
		if replayErr == nil && replay != nil {
			record, err = replay, nil
		}
	}
	if err != nil {
		return nil, err
	}

	result := "created"
	switch {
	case record.Replayed:
		result = "replayed"
	case record.AlreadyUnlocked:
		result = "already_unlocked"
	}
	metrics.EntitlementsCommitted.WithLabelValues(string(record.Kind), result).Inc()

	return record, nil
}

func (w *entitlementWriterImpl) replay(ctx context.Context, tx *gorm.DB, paymentID string) (*model.EntitlementRecord, error) {
	event, err := w.paymentEventRepo.Get(ctx, tx, paymentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup payment event: %w", err)
	}

	record := &model.EntitlementRecord{Kind: model.EntitlementKind(event.Kind), Replayed: true}
	switch record.Kind {
	case model.KindMembership:
		record.Membership, err = w.membershipRepo.FindByID(ctx, tx, event.EntitlementID)
	case model.KindUnlock:
		record.Unlock, err = w.unlockRepo.FindByID(ctx, tx, event.EntitlementID)
	default:
		err = fmt.Errorf("unknown entitlement kind %q", event.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("load entitlement %s for payment %s: %w", event.EntitlementID, paymentID, err)
	}

	return record, nil
}

func (w *entitlementWriterImpl) commitMembership(ctx context.Context, tx *gorm.DB, plan *model.EntitlementPlan) (*model.EntitlementRecord, error) {
	grant := plan.Membership
	if grant == nil {
		return nil, fmt.Errorf("membership grant missing")
	}

	membership := &model.Membership{
		UserID:           plan.UserID,
		UserEmail:        plan.UserEmail,
		UserName:         plan.UserName,
		PlanName:         grant.PlanName,
		Duration:         grant.Duration,
		StartDate:        grant.StartDate,
		ExpiryDate:       grant.ExpiryDate,
		Status:           model.MembershipActive,
		GatewayOrderID:   plan.OrderID,
		GatewayPaymentID: plan.PaymentID,
		AmountPaid:       plan.AmountPaid,
	}
	if err := w.membershipRepo.Create(ctx, tx, membership); err != nil {
		return nil, fmt.Errorf("create membership: %w", err)
	}

	return &model.EntitlementRecord{Kind: model.KindMembership, Membership: membership}, nil
}

func (w *entitlementWriterImpl) commitUnlock(ctx context.Context, tx *gorm.DB, plan *model.EntitlementPlan) (*model.EntitlementRecord, error) {
	grant := plan.Unlock
	if grant == nil {
		return nil, fmt.Errorf("unlock grant missing")
	}

	existing, err := w.unlockRepo.FindByUserAndCall(ctx, tx, plan.UserID, grant.CallID)
	if err == nil {
		return &model.EntitlementRecord{Kind: model.KindUnlock, Unlock: existing, AlreadyUnlocked: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup unlock: %w", err)
	}

	unlock := &model.UnlockedCall{
		UserID:           plan.UserID,
		CallID:           grant.CallID,
		GatewayOrderID:   plan.OrderID,
		GatewayPaymentID: plan.PaymentID,
		AmountPaid:       plan.AmountPaid,
		PurchasedAt:      time.Now(),
	}
	created, err := w.unlockRepo.CreateIfAbsent(ctx, tx, unlock)
	if err != nil {
		return nil, fmt.Errorf("create unlock: %w", err)
	}
	if created {
		return &model.EntitlementRecord{Kind: model.KindUnlock, Unlock: unlock}, nil
	}

	// lost the race on the (user, call) unique index; a locking read sees the winner's committed row
	existing, err = w.unlockRepo.FindByUserAndCallForUpdate(ctx, tx, plan.UserID, grant.CallID)
	if err != nil {
		return nil, fmt.Errorf("reload unlock: %w", err)
	}
	return &model.EntitlementRecord{Kind: model.KindUnlock, Unlock: existing, AlreadyUnlocked: true}, nil
}
