package service

import (
	"context"
	"membership-api/internal/model"
	"membership-api/internal/repository"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func TestNormalizeDuration(t *testing.T) {
	cases := []struct {
		in     string
		label  string
		months int
	}{
		{"monthly", "monthly", 1},
		{"Quarterly", "quarterly", 3},
		{"half-yearly", "half-yearly", 6},
		{"halfYearly", "half-yearly", 6},
		{"half_yearly", "half-yearly", 6},
		{" yearly ", "yearly", 12},
		{"", "monthly", 1},
		{"weekly", "monthly", 1},
	}
	for _, tc := range cases {
		label, months := NormalizeDuration(tc.in)
		assert.Equal(t, tc.label, label, tc.in)
		assert.Equal(t, tc.months, months, tc.in)
	}
}

func TestComputeExpiry(t *testing.T) {
	assert.Equal(t, date(2024, time.April, 15), ComputeExpiry(date(2024, time.January, 15), "quarterly"))
	assert.Equal(t, date(2024, time.July, 15), ComputeExpiry(date(2024, time.January, 15), "halfYearly"))
	assert.Equal(t, date(2024, time.February, 15), ComputeExpiry(date(2024, time.January, 15), "unheard-of"))

	leap := ComputeExpiry(date(2024, time.February, 29), "yearly")
	assert.Equal(t, 2025, leap.Year())
	assert.Equal(t, date(2025, time.March, 1), leap)

	assert.Equal(t, date(2024, time.March, 2), ComputeExpiry(date(2024, time.January, 31), "monthly"))
}

func TestResolveKind(t *testing.T) {
	cases := []struct {
		name    string
		conf    model.PaymentConfirmation
		want    model.EntitlementKind
		wantErr bool
	}{
		{"implicit unlock", model.PaymentConfirmation{CallID: "c1"}, model.KindUnlock, false},
		{"implicit membership", model.PaymentConfirmation{PlanName: "Gold"}, model.KindMembership, false},
		{"implicit nothing", model.PaymentConfirmation{}, "", true},
		{"explicit unlock", model.PaymentConfirmation{Kind: model.KindUnlock, CallID: "c1"}, model.KindUnlock, false},
		{"explicit unlock without call", model.PaymentConfirmation{Kind: model.KindUnlock, PlanName: "Gold"}, "", true},
		{"explicit membership", model.PaymentConfirmation{Kind: model.KindMembership, PlanName: "Gold", Duration: "yearly"}, model.KindMembership, false},
		{"explicit membership with call", model.PaymentConfirmation{Kind: model.KindMembership, PlanName: "Gold", CallID: "c1"}, "", true},
		{"explicit membership without plan", model.PaymentConfirmation{Kind: model.KindMembership}, "", true},
		{"unknown kind", model.PaymentConfirmation{Kind: "gift", CallID: "c1"}, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveKind(&tc.conf)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEntitlementResolver(t *testing.T) {
	db := newTestDB(t)
	r := newRepos(db)
	call := createCall(t, r, "Reliance swing trade")
	principal := &model.Principal{UserID: "u1", Email: "u1@example.com", Name: "User One"}

	resolver := &entitlementResolverImpl{
		callRepo: r.call,
		now:      func() time.Time { return date(2024, time.January, 15) },
	}

	t.Run("membership", func(t *testing.T) {
		plan, err := resolver.Resolve(context.Background(), &model.PaymentConfirmation{
			OrderID: "order_1", PaymentID: "pay_1", PlanName: "Gold", Duration: "quarterly", AmountPaid: 49900,
		}, principal)
		require.NoError(t, err)

		assert.Equal(t, model.KindMembership, plan.Kind)
		assert.Nil(t, plan.Unlock)
		assert.Equal(t, "Gold", plan.Membership.PlanName)
		assert.Equal(t, "quarterly", plan.Membership.Duration)
		assert.Equal(t, date(2024, time.April, 15), plan.Membership.ExpiryDate)
		assert.Equal(t, int64(49900), plan.AmountPaid)
		assert.Equal(t, "u1", plan.UserID)
	})

	t.Run("unknown duration defaults to monthly", func(t *testing.T) {
		plan, err := resolver.Resolve(context.Background(), &model.PaymentConfirmation{
			OrderID: "order_1", PaymentID: "pay_1", PlanName: "Gold", Duration: "fortnightly",
		}, principal)
		require.NoError(t, err)
		assert.Equal(t, "monthly", plan.Membership.Duration)
		assert.Equal(t, date(2024, time.February, 15), plan.Membership.ExpiryDate)
	})

	t.Run("unlock uses call title", func(t *testing.T) {
		plan, err := resolver.Resolve(context.Background(), &model.PaymentConfirmation{
			OrderID: "order_2", PaymentID: "pay_2", CallID: call.ID,
		}, principal)
		require.NoError(t, err)
		assert.Equal(t, model.KindUnlock, plan.Kind)
		assert.Nil(t, plan.Membership)
		assert.Equal(t, call.ID, plan.Unlock.CallID)
		assert.Equal(t, "Reliance swing trade", plan.Unlock.CallTitle)
	})

	t.Run("unlock of missing call still resolves", func(t *testing.T) {
		plan, err := resolver.Resolve(context.Background(), &model.PaymentConfirmation{
			OrderID: "order_3", PaymentID: "pay_3", CallID: "does-not-exist",
		}, principal)
		require.NoError(t, err)
		assert.Equal(t, UnknownCallTitle, plan.Unlock.CallTitle)
	})
}

func unlockPlan(userID, callID, orderID, paymentID string) *model.EntitlementPlan {
	return &model.EntitlementPlan{
		Kind: model.KindUnlock, UserID: userID, OrderID: orderID, PaymentID: paymentID, AmountPaid: 9900,
		Unlock: &model.UnlockGrant{CallID: callID, CallTitle: "t"},
	}
}

func membershipPlan(userID, planName, orderID, paymentID string, start time.Time) *model.EntitlementPlan {
	return &model.EntitlementPlan{
		Kind: model.KindMembership, UserID: userID, OrderID: orderID, PaymentID: paymentID, AmountPaid: 49900,
		Membership: &model.MembershipGrant{
			PlanName: planName, Duration: "monthly", StartDate: start, ExpiryDate: ComputeExpiry(start, "monthly"),
		},
	}
}

func TestEntitlementWriter_UnlockIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	r := newRepos(db)
	w := r.writer(db)

	first, err := w.Commit(ctx, unlockPlan("u1", "C1", "order_1", "pay_1"))
	require.NoError(t, err)
	assert.False(t, first.Replayed)
	require.NotNil(t, first.Unlock)

	// a second, different payment for the same pair
	second, err := w.Commit(ctx, unlockPlan("u1", "C1", "order_2", "pay_2"))
	require.NoError(t, err)
	assert.False(t, second.Replayed)
	assert.True(t, second.AlreadyUnlocked)
	assert.Equal(t, first.Unlock.ID, second.Unlock.ID)
	assert.Equal(t, "pay_1", second.Unlock.GatewayPaymentID)

	event, err := r.paymentEvent.Get(ctx, nil, "pay_2")
	require.NoError(t, err)
	assert.Equal(t, first.Unlock.ID, event.EntitlementID)

	// the very same payment again
	third, err := w.Commit(ctx, unlockPlan("u1", "C1", "order_1", "pay_1"))
	require.NoError(t, err)
	assert.True(t, third.Replayed)
	assert.False(t, third.AlreadyUnlocked)
	assert.Equal(t, first.Unlock.ID, third.Unlock.ID)

	var count int64
	require.NoError(t, db.Model(&model.UnlockedCall{}).Where("user_id = ? AND call_id = ?", "u1", "C1").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// another user may unlock the same call
	other, err := w.Commit(ctx, unlockPlan("u2", "C1", "order_3", "pay_3"))
	require.NoError(t, err)
	assert.False(t, other.Replayed)
	assert.False(t, other.AlreadyUnlocked)
	assert.NotEqual(t, first.Unlock.ID, other.Unlock.ID)
}

// lostRaceUnlockRepo reports no unlock on the first read and a conflict on insert,
// as a transaction does when a concurrent one commits the same pair in between.
type lostRaceUnlockRepo struct {
	repository.UnlockRepository
	winner *model.UnlockedCall
}

func (r *lostRaceUnlockRepo) FindByUserAndCall(ctx context.Context, tx *gorm.DB, userID, callID string) (*model.UnlockedCall, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *lostRaceUnlockRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, unlock *model.UnlockedCall) (bool, error) {
	return false, nil
}

func (r *lostRaceUnlockRepo) FindByUserAndCallForUpdate(ctx context.Context, tx *gorm.DB, userID, callID string) (*model.UnlockedCall, error) {
	return r.winner, nil
}

func TestEntitlementWriter_UnlockLostRaceReturnsWinner(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	r := newRepos(db)

	winner := &model.UnlockedCall{ID: "unlock-winner", UserID: "u1", CallID: "C1", GatewayPaymentID: "pay_1"}
	w := NewEntitlementWriter(db, r.membership, &lostRaceUnlockRepo{UnlockRepository: r.unlock, winner: winner}, r.order, r.paymentEvent)

	record, err := w.Commit(ctx, unlockPlan("u1", "C1", "order_2", "pay_2"))
	require.NoError(t, err)
	assert.True(t, record.AlreadyUnlocked)
	assert.False(t, record.Replayed)
	assert.Equal(t, "unlock-winner", record.Unlock.ID)

	event, err := r.paymentEvent.Get(ctx, nil, "pay_2")
	require.NoError(t, err)
	assert.Equal(t, "unlock-winner", event.EntitlementID)
}

func TestUnlockRepository_LockingReadFindsCommittedRow(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	r := newRepos(db)

	_, err := r.unlock.CreateIfAbsent(ctx, nil, &model.UnlockedCall{UserID: "u1", CallID: "C1", GatewayOrderID: "o1", GatewayPaymentID: "p1", PurchasedAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		found, err := r.unlock.FindByUserAndCallForUpdate(ctx, tx, "u1", "C1")
		require.NoError(t, err)
		assert.Equal(t, "p1", found.GatewayPaymentID)

		_, err = r.unlock.FindByUserAndCallForUpdate(ctx, tx, "u1", "C2")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		return nil
	}))
}

func TestEntitlementWriter_UnlockUniqueIndexIsTheSafetyNet(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	r := newRepos(db)

	created, err := r.unlock.CreateIfAbsent(ctx, nil, &model.UnlockedCall{UserID: "u1", CallID: "C1", GatewayOrderID: "o1", GatewayPaymentID: "p1", PurchasedAt: time.Now()})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = r.unlock.CreateIfAbsent(ctx, nil, &model.UnlockedCall{UserID: "u1", CallID: "C1", GatewayOrderID: "o2", GatewayPaymentID: "p2", PurchasedAt: time.Now()})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestEntitlementWriter_MembershipIsAdditive(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	r := newRepos(db)
	w := r.writer(db)

	first, err := w.Commit(ctx, membershipPlan("u1", "Gold", "order_1", "pay_1", date(2024, time.January, 15)))
	require.NoError(t, err)
	second, err := w.Commit(ctx, membershipPlan("u1", "Gold", "order_2", "pay_2", date(2024, time.February, 20)))
	require.NoError(t, err)

	assert.False(t, first.Replayed)
	assert.False(t, second.Replayed)
	assert.NotEqual(t, first.Membership.ID, second.Membership.ID)
	assert.Equal(t, model.MembershipActive, first.Membership.Status)
	assert.Equal(t, date(2024, time.February, 15), first.Membership.ExpiryDate)
	assert.Equal(t, date(2024, time.March, 20), second.Membership.ExpiryDate)

	var count int64
	require.NoError(t, db.Model(&model.Membership{}).Where("user_id = ? AND plan_name = ?", "u1", "Gold").Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestEntitlementWriter_PaymentReplayReturnsRecordedMembership(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	r := newRepos(db)
	w := r.writer(db)

	require.NoError(t, r.order.Create(ctx, nil, &model.GatewayOrder{OrderID: "order_1", Amount: 49900, Currency: "INR"}))

	first, err := w.Commit(ctx, membershipPlan("u1", "Gold", "order_1", "pay_1", date(2024, time.January, 15)))
	require.NoError(t, err)

	order, err := r.order.FindByOrderID(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, "PAID", order.Status)

	again, err := w.Commit(ctx, membershipPlan("u1", "Gold", "order_1", "pay_1", date(2024, time.March, 1)))
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.Membership.ID, again.Membership.ID)
	assert.Equal(t, first.Membership.ExpiryDate.Unix(), again.Membership.ExpiryDate.Unix())

	var count int64
	require.NoError(t, db.Model(&model.Membership{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	event, err := r.paymentEvent.Get(ctx, nil, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, first.Membership.ID, event.EntitlementID)
	assert.Equal(t, string(model.KindMembership), event.Kind)
}
