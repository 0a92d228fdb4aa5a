// Package payments verifies payment provider webhooks and reconciles the
// orders they refer to.
package payments

import (
	"github.com/shopspring/decimal"

	"golanka_travel_echo/internal/models"
)

// Event is a verified provider notification normalized across gateways
type Event struct {
	Provider models.PaymentGateway
	Type     string
	// EventKey is the provider's natural key for the delivery, used for logging and history.
	EventKey string
	OrderRef string
	// TransactionID is the idempotency key written to the order's payment info.
	TransactionID string
	Succeeded     bool
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	Raw           []byte
}

// Outcome describes what reconciliation did with an event
type Outcome string

const (
	OutcomeConfirmed         Outcome = "confirmed"
	OutcomeDuplicate         Outcome = "duplicate"
	OutcomeIgnored           Outcome = "ignored"
	OutcomeOrderNotFound     Outcome = "order_not_found"
	OutcomeInvalidTransition Outcome = "invalid_transition"
	OutcomeRejected          Outcome = "rejected"
	OutcomeError             Outcome = "error"
)

// ConfirmationNotice is everything needed to tell a purchaser their payment went through
type ConfirmationNotice struct {
	OrderID       string                `json:"order_id"`
	Recipient     string                `json:"recipient"`
	Provider      models.PaymentGateway `json:"provider"`
	TransactionID string                `json:"transaction_id"`
	Amount        string                `json:"amount"`
	Currency      string                `json:"currency"`
}
