package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"membership-api/internal/config"
	"membership-api/internal/metrics"
	"membership-api/internal/model"
	"sync"
	"time"
)

const DefaultJobTimeout = 30 * time.Second

type Renderer interface {
	Render(ctx context.Context, bc *model.BillingContext) ([]byte, error)
}

type Mailer interface {
	Send(ctx context.Context, mail *model.Mail) error
}

// Dispatcher renders and mails invoices on a fixed pool of workers. Jobs are
// best effort: failures are logged and counted, never returned to the payer.
type Dispatcher struct {
	renderer Renderer
	mailer   Mailer
	cfg      config.Dispatch
	sender   string

	jobs chan *model.BillingContext
	wg   sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	started bool
}

func NewDispatcher(renderer Renderer, mailer Mailer, cfg config.Dispatch, sender string) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultJobTimeout
	}
	return &Dispatcher{
		renderer: renderer,
		mailer:   mailer,
		cfg:      cfg,
		sender:   sender,
		jobs:     make(chan *model.BillingContext, cfg.QueueSize),
	}
}

func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	slog.Info("invoice dispatcher started", "workers", d.cfg.Workers, "queue_size", d.cfg.QueueSize)
}

// Enqueue never blocks. It reports false when the job was dropped.
func (d *Dispatcher) Enqueue(bc *model.BillingContext) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		metrics.InvoiceDispatches.WithLabelValues("dropped").Inc()
		slog.Error("invoice dispatcher stopped, dropping invoice", "order_id", bc.OrderID, "payment_id", bc.PaymentID)
		return false
	}

	select {
	case d.jobs <- bc:
		metrics.DispatchQueueDepth.Inc()
		return true
	default:
		metrics.InvoiceDispatches.WithLabelValues("dropped").Inc()
		slog.Error("invoice queue full, dropping invoice",
			"order_id", bc.OrderID, "payment_id", bc.PaymentID, "email", bc.RecipientEmail)
		return false
	}
}

// Stop drains queued jobs and waits for the workers or for ctx to end.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("invoice dispatcher drain: %w", ctx.Err())
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for bc := range d.jobs {
		metrics.DispatchQueueDepth.Dec()
		d.process(bc, id)
	}
}

func (d *Dispatcher) process(bc *model.BillingContext, worker int) {
	defer func() {
		if r := recover(); r != nil {
			metrics.InvoiceDispatches.WithLabelValues("render_failed").Inc()
			slog.Error("invoice job panicked", "order_id", bc.OrderID, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
	defer cancel()

	log := slog.With("order_id", bc.OrderID, "payment_id", bc.PaymentID, "kind", bc.Kind, "worker", worker)

	pdf, err := d.renderer.Render(ctx, bc)
	if err != nil {
		metrics.InvoiceDispatches.WithLabelValues("render_failed").Inc()
		log.Error("render invoice, skipping delivery", "error", err)
		return
	}

	if err := d.mailer.Send(ctx, ComposeMail(bc, pdf, d.sender)); err != nil {
		metrics.InvoiceDispatches.WithLabelValues("deliver_failed").Inc()
		log.Error("deliver invoice", "email", bc.RecipientEmail, "error", err)
		return
	}

	metrics.InvoiceDispatches.WithLabelValues("sent").Inc()
	log.Info("invoice sent", "email", bc.RecipientEmail)
}

// ComposeMail builds the path-specific message with the invoice attached.
func ComposeMail(bc *model.BillingContext, pdf []byte, sender string) *model.Mail {
	name := html.EscapeString(bc.RecipientName)
	signoff := "Best regards"
	if sender != "" {
		signoff += ",<br>" + html.EscapeString(sender)
	}

	mail := &model.Mail{
		To:     bc.RecipientEmail,
		ToName: bc.RecipientName,
		Attachments: []model.MailAttachment{{
			Filename:    fmt.Sprintf("invoice-%s.pdf", bc.OrderID),
			ContentType: "application/pdf",
			Content:     pdf,
		}},
	}

	switch bc.Kind {
	case model.KindUnlock:
		title := html.EscapeString(bc.CallTitle)
		mail.Subject = "Unlocked: " + bc.CallTitle
		mail.HTMLBody = fmt.Sprintf(`<p>Hi %s,</p>
<p>You have successfully unlocked the trading idea: <strong>%s</strong>.</p>
<p>You can now view the entry, target, and stop-loss levels on your dashboard.</p>
<p>Your invoice is attached.</p>
<p>%s</p>`, name, title, signoff)
	default:
		plan := html.EscapeString(bc.PlanName)
		mail.Subject = "Membership Activated: " + bc.PlanName
		mail.HTMLBody = fmt.Sprintf(`<p>Hi %s,</p>
<p>Thank you for subscribing to the <strong>%s (%s)</strong> plan.</p>
<p>Your membership is active from <strong>%s</strong> to <strong>%s</strong>.</p>
<p>Your invoice is attached.</p>
<p>%s</p>`, name, plan, html.EscapeString(bc.DurationLabel),
			bc.StartDate.Format("02/01/2006"), bc.ExpiryDate.Format("02/01/2006"), signoff)
	}

	return mail
}
