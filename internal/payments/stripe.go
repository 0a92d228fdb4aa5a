package payments

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"golanka_travel_echo/internal/models"
)

// StripeEventCheckoutCompleted is the only Stripe event type that confirms an order
const StripeEventCheckoutCompleted = "checkout.session.completed"

// StripeOrderMetadataKey is the checkout session metadata key carrying the order id
const StripeOrderMetadataKey = "orderId"

// StripeVerifier checks Stripe webhook deliveries against the endpoint signing secret
type StripeVerifier struct {
	secret    string
	tolerance time.Duration
}

func NewStripeVerifier(webhookSecret string) *StripeVerifier {
	return &StripeVerifier{secret: webhookSecret, tolerance: webhook.DefaultTolerance}
}

// Verify authenticates the raw body with the Stripe-Signature header and normalizes the event.
// payload must be the exact bytes received; re-encoded JSON will not verify.
func (v *StripeVerifier) Verify(payload []byte, signatureHeader string) (Event, error) {
	if signatureHeader == "" {
		return Event{}, fmt.Errorf("missing Stripe-Signature header: %w", ErrSignatureInvalid)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("%v: %w", err, ErrSignatureInvalid)
	}

	normalized := Event{
		Provider: models.PaymentGatewayStripe,
		Type:     string(event.Type),
		EventKey: event.ID,
		Raw:      payload,
	}

	if normalized.Type != StripeEventCheckoutCompleted {
		return normalized, nil
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return Event{}, fmt.Errorf("stripe event %s has no data object: %w", event.ID, ErrMalformedPayload)
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return Event{}, fmt.Errorf("stripe event %s checkout session: %v: %w", event.ID, err, ErrMalformedPayload)
	}

	currency := strings.ToUpper(string(session.Currency))
	if currency == "" {
		currency = "USD"
	}

	normalized.OrderRef = session.Metadata[StripeOrderMetadataKey]
	normalized.TransactionID = session.ID
	// Stripe reports amounts in the smallest currency unit.
	normalized.Amount = decimal.New(session.AmountTotal, -2)
	normalized.Currency = currency
	normalized.Succeeded = normalized.OrderRef != ""
	if session.CustomerDetails != nil {
		normalized.CustomerEmail = session.CustomerDetails.Email
	}
	return normalized, nil
}
