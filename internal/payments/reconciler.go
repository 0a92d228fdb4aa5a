package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"golanka_travel_echo/internal/models"
)

// TransitionResult is what the store did with a confirmation request
type TransitionResult int

const (
	// TransitionApplied means this call moved the order to Confirmed.
	TransitionApplied TransitionResult = iota
	// TransitionDuplicate means the transaction was already recorded on the order.
	TransitionDuplicate
	// TransitionRejected means the order is in a terminal status.
	TransitionRejected
)

// ConfirmPaymentRequest carries the payment-confirmed transition for one order
type ConfirmPaymentRequest struct {
	OrderID       string
	UserID        string
	Provider      models.PaymentGateway
	TransactionID string
	Amount        decimal.Decimal
	Currency      string
	Raw           []byte
}

// OrderStore locates orders and applies the confirmation atomically.
//
// ConfirmPayment must perform the duplicate check, the terminal-status check and the
// write as one conditional update; two concurrent calls with the same transaction id
// must never both return TransitionApplied.
type OrderStore interface {
	FindOrder(ctx context.Context, orderID string) (*models.Order, error)
	ConfirmPayment(ctx context.Context, req ConfirmPaymentRequest) (TransitionResult, error)
}

// Notifier hands a confirmation notice off for delivery.
// Implementations must not block on the mail provider.
type Notifier interface {
	Dispatch(ctx context.Context, notice ConfirmationNotice) error
}

// Reconciler applies verified provider events to orders exactly once
type Reconciler struct {
	store    OrderStore
	notifier Notifier
	logger   *slog.Logger
}

func NewReconciler(store OrderStore, notifier Notifier, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, notifier: notifier, logger: logger}
}

// Reconcile drives the Processing/Confirmed -> Confirmed transition for a verified event.
//
// Returned errors are ErrOrderNotFound or ErrInvalidStateTransition for anomalies the
// provider should not retry, or an unexpected store error. Notification failures are
// logged and never returned.
func (r *Reconciler) Reconcile(ctx context.Context, ev Event) (Outcome, error) {
	log := r.logger.With(
		"provider", ev.Provider,
		"event_type", ev.Type,
		"event_key", ev.EventKey,
		"order_id", ev.OrderRef,
		"transaction_id", ev.TransactionID,
	)

	if !ev.Succeeded {
		log.InfoContext(ctx, "payment event does not confirm an order, ignoring")
		return OutcomeIgnored, nil
	}

	order, err := r.store.FindOrder(ctx, ev.OrderRef)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.WarnContext(ctx, "payment event references unknown order")
			return OutcomeOrderNotFound, err
		}
		return OutcomeError, fmt.Errorf("locate order %s: %w", ev.OrderRef, err)
	}

	if order.PaymentInfo.ID == ev.TransactionID {
		log.InfoContext(ctx, "duplicate delivery, transaction already recorded")
		return OutcomeDuplicate, nil
	}
	if !order.OrderStatus.CanTransitionTo(models.OrderStatusConfirmed) {
		log.WarnContext(ctx, "refusing to confirm order", "order_status", order.OrderStatus)
		return OutcomeInvalidTransition, fmt.Errorf("order %s is %s: %w", order.ID, order.OrderStatus, ErrInvalidStateTransition)
	}

	result, err := r.store.ConfirmPayment(ctx, ConfirmPaymentRequest{
		OrderID:       order.ID,
		UserID:        order.UserID,
		Provider:      ev.Provider,
		TransactionID: ev.TransactionID,
		Amount:        ev.Amount,
		Currency:      ev.Currency,
		Raw:           ev.Raw,
	})
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.WarnContext(ctx, "order disappeared before confirmation")
			return OutcomeOrderNotFound, err
		}
		return OutcomeError, fmt.Errorf("confirm order %s: %w", order.ID, err)
	}

	switch result {
	case TransitionDuplicate:
		log.InfoContext(ctx, "concurrent duplicate delivery lost the race, no-op")
		return OutcomeDuplicate, nil
	case TransitionRejected:
		log.WarnContext(ctx, "order reached a terminal status before confirmation")
		return OutcomeInvalidTransition, fmt.Errorf("order %s: %w", order.ID, ErrInvalidStateTransition)
	}

	log.InfoContext(ctx, "order confirmed")
	r.notify(ctx, log, order, ev)
	return OutcomeConfirmed, nil
}

func (r *Reconciler) notify(ctx context.Context, log *slog.Logger, order *models.Order, ev Event) {
	if r.notifier == nil {
		return
	}

	recipient := order.OwnerEmail()
	if recipient == "" {
		recipient = ev.CustomerEmail
	}
	if recipient == "" {
		log.WarnContext(ctx, "no recipient for payment confirmation, skipping email")
		return
	}

	notice := ConfirmationNotice{
		OrderID:       order.ID,
		Recipient:     recipient,
		Provider:      ev.Provider,
		TransactionID: ev.TransactionID,
		Amount:        ev.Amount.StringFixed(2),
		Currency:      ev.Currency,
	}
	if err := r.notifier.Dispatch(ctx, notice); err != nil {
		log.ErrorContext(ctx, "payment confirmation not dispatched", "error", fmt.Errorf("%w: %v", ErrNotificationFailed, err))
	}
}
