package service

import (
	"context"
	"membership-api/internal/client"
	"membership-api/internal/config"
	"membership-api/internal/model"
	"membership-api/internal/repository"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := client.OpenDatabase(config.Database{Driver: "sqlite"})
	require.NoError(t, err)
	require.NoError(t, client.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type repos struct {
	plan         repository.PlanRepository
	membership   repository.MembershipRepository
	call         repository.CallRepository
	unlock       repository.UnlockRepository
	chat         repository.ChatRepository
	order        repository.OrderRepository
	paymentEvent repository.PaymentEventRepository
}

func newRepos(db *gorm.DB) *repos {
	return &repos{
		plan:         repository.NewPlanRepository(db),
		membership:   repository.NewMembershipRepository(db),
		call:         repository.NewCallRepository(db),
		unlock:       repository.NewUnlockRepository(db),
		chat:         repository.NewChatRepository(db),
		order:        repository.NewOrderRepository(db),
		paymentEvent: repository.NewPaymentEventRepository(db),
	}
}

func (r *repos) writer(db *gorm.DB) EntitlementWriter {
	return NewEntitlementWriter(db, r.membership, r.unlock, r.order, r.paymentEvent)
}

type fakeRazorpay struct {
	CreateOrderFn func(ctx context.Context, req *client.CreateOrderRequest) (*model.GatewayOrderResult, error)
}

func (f *fakeRazorpay) CreateOrder(ctx context.Context, req *client.CreateOrderRequest) (*model.GatewayOrderResult, error) {
	return f.CreateOrderFn(ctx, req)
}

type fakeWriter struct {
	CommitFn func(ctx context.Context, plan *model.EntitlementPlan) (*model.EntitlementRecord, error)
}

func (f *fakeWriter) Commit(ctx context.Context, plan *model.EntitlementPlan) (*model.EntitlementRecord, error) {
	return f.CommitFn(ctx, plan)
}

func createCall(t *testing.T, r *repos, title string) *model.DailyCall {
	t.Helper()
	call := &model.DailyCall{
		Title: title, Price: 99, Scrip: "RELIANCE", Action: "BUY",
		Entry: "2450", BuyMore: "2400", Target: "2600", StopLoss: "2380", Rationale: "Breakout above resistance.",
	}
	require.NoError(t, r.call.Create(context.Background(), call))
	return call
}

func ptr[T any](v T) *T { return &v }
