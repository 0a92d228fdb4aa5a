package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golanka_travel_echo/internal/payments"
)

// AsyncDispatcher sends confirmation emails from a background goroutine so the
// webhook response never waits on the mail provider.
type AsyncDispatcher struct {
	mailer  Mailer
	brand   string
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

func NewAsyncDispatcher(mailer Mailer, brand string, timeout time.Duration, logger *slog.Logger) *AsyncDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AsyncDispatcher{mailer: mailer, brand: brand, timeout: timeout, logger: logger}
}

// Dispatch renders the email and returns; delivery happens in the background.
func (d *AsyncDispatcher) Dispatch(ctx context.Context, notice payments.ConfirmationNotice) error {
	subject, body, err := RenderPaymentConfirmation(d.brand, notice)
	if err != nil {
		return err
	}

	// Detached from the request: the response is sent before the email is.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()

		if err := d.mailer.SendEmail(sendCtx, []string{notice.Recipient}, subject, body); err != nil {
			d.logger.ErrorContext(sendCtx, "payment confirmation email failed",
				"order_id", notice.OrderID,
				"recipient", notice.Recipient,
				"error", err,
			)
			return
		}
		d.logger.InfoContext(sendCtx, "payment confirmation email sent",
			"order_id", notice.OrderID,
			"recipient", notice.Recipient,
		)
	}()
	return nil
}

// Wait blocks until in-flight emails finish or ctx is done
func (d *AsyncDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
