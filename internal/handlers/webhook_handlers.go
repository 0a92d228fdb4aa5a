package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"golanka_travel_echo/internal/models"
	"golanka_travel_echo/internal/payments"
)

// PaymentReconciler applies a verified event to its order
type PaymentReconciler interface {
	Reconcile(ctx context.Context, ev payments.Event) (payments.Outcome, error)
}

// CallbackRecorder appends a webhook delivery to the audit trail
type CallbackRecorder interface {
	RecordCallback(ctx context.Context, entry models.PaymentCallbackHistory) error
}

// Verifiers holds the configured providers. A nil verifier disables its route.
type Verifiers struct {
	Stripe   *payments.StripeVerifier
	PayHere  *payments.PayHereVerifier
	Midtrans *payments.MidtransVerifier
}

type WebhookHandler struct {
	reconciler PaymentReconciler
	verifiers  Verifiers
	history    CallbackRecorder
	logger     *slog.Logger
}

func NewWebhookHandler(reconciler PaymentReconciler, verifiers Verifiers, history CallbackRecorder, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{reconciler: reconciler, verifiers: verifiers, history: history, logger: logger}
}

// StripeWebhook handles POST /webhooks/stripe. The body must reach it unparsed.
func (h *WebhookHandler) StripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.String(http.StatusBadRequest, "Webhook Error: "+err.Error())
	}

	ev, err := h.verifiers.Stripe.Verify(payload, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.WarnContext(ctx, "stripe webhook rejected", "error", err)
		h.record(ctx, rejectedEntry(models.PaymentGatewayStripe, "", payload, err))
		return c.String(http.StatusBadRequest, "Webhook Error: "+err.Error())
	}

	outcome, err := h.reconcile(ctx, ev)
	if err != nil && !payments.IsAcknowledgedAnomaly(err) {
		// Stripe is still acknowledged; the delivery is kept in the callback history.
		h.logger.ErrorContext(ctx, "stripe webhook processing failed", "event_key", ev.EventKey, "outcome", outcome, "error", err)
	}

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

// PayHereWebhook handles POST /webhooks/payhere (PayHere notify_url)
func (h *WebhookHandler) PayHereWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	form, err := c.FormParams()
	if err != nil {
		h.logger.WarnContext(ctx, "payhere webhook body unreadable", "error", err)
		return c.String(http.StatusBadRequest, "Malformed Payload")
	}

	ev, err := h.verifiers.PayHere.Verify(form)
	if err != nil {
		h.logger.WarnContext(ctx, "payhere webhook rejected", "order_id", form.Get("order_id"), "error", err)
		h.record(ctx, rejectedEntry(models.PaymentGatewayPayHere, form.Get("order_id"), []byte(form.Encode()), err))

		switch {
		case errors.Is(err, payments.ErrMerchantMismatch):
			return c.String(http.StatusBadRequest, "Invalid Merchant ID")
		case errors.Is(err, payments.ErrSignatureInvalid):
			return c.String(http.StatusBadRequest, "Signature Verification Failed")
		default:
			return c.String(http.StatusBadRequest, "Malformed Payload")
		}
	}

	if _, err := h.reconcile(ctx, ev); err != nil && !payments.IsAcknowledgedAnomaly(err) {
		h.logger.ErrorContext(ctx, "payhere webhook processing failed", "event_key", ev.EventKey, "error", err)
		return c.String(http.StatusInternalServerError, "Server Error")
	}

	return c.String(http.StatusOK, "Webhook Received")
}

// MidtransWebhook handles POST /webhooks/midtrans (HTTP notification)
func (h *WebhookHandler) MidtransWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"status": "error", "message": "Invalid JSON payload"})
	}

	ev, err := h.verifiers.Midtrans.Verify(payload)
	if err != nil {
		h.logger.WarnContext(ctx, "midtrans webhook rejected", "error", err)
		h.record(ctx, rejectedEntry(models.PaymentGatewayMidtrans, "", payload, err))

		message := "Invalid signature"
		if errors.Is(err, payments.ErrMalformedPayload) {
			message = "Invalid JSON payload"
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"status": "error", "message": message})
	}

	if _, err := h.reconcile(ctx, ev); err != nil && !payments.IsAcknowledgedAnomaly(err) {
		h.logger.ErrorContext(ctx, "midtrans webhook processing failed", "event_key", ev.EventKey, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"status": "error", "message": "Server Error"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *WebhookHandler) reconcile(ctx context.Context, ev payments.Event) (payments.Outcome, error) {
	outcome, err := h.reconciler.Reconcile(ctx, ev)

	entry := models.PaymentCallbackHistory{
		PaymentGateway: ev.Provider,
		EventKey:       ev.EventKey,
		EventType:      ev.Type,
		OrderRef:       ev.OrderRef,
		SignatureValid: true,
		Outcome:        string(outcome),
		Metadata:       ev.Raw,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	h.record(ctx, entry)

	return outcome, err
}

func (h *WebhookHandler) record(ctx context.Context, entry models.PaymentCallbackHistory) {
	if h.history == nil {
		return
	}
	if err := h.history.RecordCallback(context.WithoutCancel(ctx), entry); err != nil {
		h.logger.WarnContext(ctx, "failed to record payment callback", "provider", entry.PaymentGateway, "event_key", entry.EventKey, "error", err)
	}
}

func rejectedEntry(provider models.PaymentGateway, orderRef string, raw []byte, err error) models.PaymentCallbackHistory {
	return models.PaymentCallbackHistory{
		PaymentGateway: provider,
		OrderRef:       orderRef,
		SignatureValid: false,
		Outcome:        string(payments.OutcomeRejected),
		Error:          err.Error(),
		Metadata:       raw,
	}
}
