package notify

import (
	"context"
	"errors"
	"membership-api/internal/config"
	"membership-api/internal/model"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	RenderFn func(ctx context.Context, bc *model.BillingContext) ([]byte, error)
}

func (f *fakeRenderer) Render(ctx context.Context, bc *model.BillingContext) ([]byte, error) {
	return f.RenderFn(ctx, bc)
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []*model.Mail
	err   error
	block chan struct{}
}

func (f *fakeMailer) Send(ctx context.Context, mail *model.Mail) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, mail)
	return f.err
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

var testCfg = config.Dispatch{Workers: 2, QueueSize: 8, Timeout: time.Second}

func okRenderer() *fakeRenderer {
	return &fakeRenderer{RenderFn: func(ctx context.Context, bc *model.BillingContext) ([]byte, error) {
		return []byte("%PDF-1.3 " + bc.OrderID), nil
	}}
}

func TestDispatcher_DeliversWithAttachment(t *testing.T) {
	mailer := &fakeMailer{}
	d := NewDispatcher(okRenderer(), mailer, testCfg, "Research Desk")
	d.Start()

	ok := d.Enqueue(&model.BillingContext{
		Kind: model.KindUnlock, OrderID: "order_1", PaymentID: "pay_1",
		RecipientEmail: "u1@example.com", RecipientName: "User One", CallTitle: "Nifty call",
	})
	require.True(t, ok)
	require.NoError(t, d.Stop(context.Background()))

	require.Equal(t, 1, mailer.count())
	mail := mailer.sent[0]
	assert.Equal(t, "u1@example.com", mail.To)
	assert.Equal(t, "Unlocked: Nifty call", mail.Subject)
	require.Len(t, mail.Attachments, 1)
	assert.Equal(t, "invoice-order_1.pdf", mail.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", mail.Attachments[0].ContentType)
	assert.Equal(t, []byte("%PDF-1.3 order_1"), mail.Attachments[0].Content)
}

func TestDispatcher_ZeroTimeoutFallsBackToDefault(t *testing.T) {
	var deadline time.Time
	var ctxErr error
	mailer := &fakeMailer{}
	d := NewDispatcher(&fakeRenderer{RenderFn: func(ctx context.Context, bc *model.BillingContext) ([]byte, error) {
		deadline, _ = ctx.Deadline()
		ctxErr = ctx.Err()
		return []byte("%PDF"), nil
	}}, mailer, config.Dispatch{Workers: 1, QueueSize: 1}, "")
	d.Start()

	start := time.Now()
	require.True(t, d.Enqueue(&model.BillingContext{OrderID: "order_1", RecipientEmail: "u1@example.com"}))
	require.NoError(t, d.Stop(context.Background()))

	assert.NoError(t, ctxErr)
	assert.WithinDuration(t, start.Add(DefaultJobTimeout), deadline, 5*time.Second)
	assert.Equal(t, 1, mailer.count())
}

func TestDispatcher_RenderFailureSkipsDelivery(t *testing.T) {
	mailer := &fakeMailer{}
	d := NewDispatcher(&fakeRenderer{RenderFn: func(ctx context.Context, bc *model.BillingContext) ([]byte, error) {
		return nil, errors.New("font missing")
	}}, mailer, testCfg, "")
	d.Start()

	require.True(t, d.Enqueue(&model.BillingContext{OrderID: "order_1", RecipientEmail: "u1@example.com"}))
	require.NoError(t, d.Stop(context.Background()))

	assert.Zero(t, mailer.count())
}

func TestDispatcher_DeliveryFailureIsContained(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	d := NewDispatcher(okRenderer(), mailer, testCfg, "")
	d.Start()

	require.True(t, d.Enqueue(&model.BillingContext{OrderID: "order_1", RecipientEmail: "u1@example.com"}))
	require.True(t, d.Enqueue(&model.BillingContext{OrderID: "order_2", RecipientEmail: "u2@example.com"}))
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, 2, mailer.count())
}

func TestDispatcher_PanicInRendererIsRecovered(t *testing.T) {
	mailer := &fakeMailer{}
	d := NewDispatcher(&fakeRenderer{RenderFn: func(ctx context.Context, bc *model.BillingContext) ([]byte, error) {
		if bc.OrderID == "bad" {
			panic("boom")
		}
		return []byte("pdf"), nil
	}}, mailer, config.Dispatch{Workers: 1, QueueSize: 4, Timeout: time.Second}, "")
	d.Start()

	d.Enqueue(&model.BillingContext{OrderID: "bad"})
	d.Enqueue(&model.BillingContext{OrderID: "good", RecipientEmail: "u@example.com"})
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, 1, mailer.count())
}

func TestDispatcher_FullQueueDrops(t *testing.T) {
	mailer := &fakeMailer{block: make(chan struct{})}
	d := NewDispatcher(okRenderer(), mailer, config.Dispatch{Workers: 1, QueueSize: 1, Timeout: time.Second}, "")

	// not started: the single slot fills and the next job is dropped
	assert.True(t, d.Enqueue(&model.BillingContext{OrderID: "order_1"}))
	assert.False(t, d.Enqueue(&model.BillingContext{OrderID: "order_2"}))

	close(mailer.block)
	d.Start()
	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, 1, mailer.count())

	assert.False(t, d.Enqueue(&model.BillingContext{OrderID: "order_3"}))
}

func TestDispatcher_StopHonoursDeadline(t *testing.T) {
	mailer := &fakeMailer{block: make(chan struct{})}
	d := NewDispatcher(okRenderer(), mailer, config.Dispatch{Workers: 1, QueueSize: 1, Timeout: time.Second}, "")
	d.Start()
	d.Enqueue(&model.BillingContext{OrderID: "order_1"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Stop(ctx), context.DeadlineExceeded)

	close(mailer.block)
}

func TestComposeMail_Membership(t *testing.T) {
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	mail := ComposeMail(&model.BillingContext{
		Kind: model.KindMembership, OrderID: "order_7", RecipientEmail: "x@example.com", RecipientName: "<Asha>",
		PlanName: "Gold", DurationLabel: "Quarterly", StartDate: start, ExpiryDate: start.AddDate(0, 3, 0),
	}, []byte("pdf"), "Research Desk")

	assert.Equal(t, "Membership Activated: Gold", mail.Subject)
	assert.Contains(t, mail.HTMLBody, "Gold (Quarterly)")
	assert.Contains(t, mail.HTMLBody, "15/01/2024")
	assert.Contains(t, mail.HTMLBody, "15/04/2024")
	assert.Contains(t, mail.HTMLBody, "&lt;Asha&gt;")
	assert.Contains(t, mail.HTMLBody, "Research Desk")
	assert.Equal(t, "invoice-order_7.pdf", mail.Attachments[0].Filename)
}
