package payments

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/shopspring/decimal"

	"golanka_travel_echo/internal/models"
)

// MidtransVerifier checks Midtrans HTTP notifications
type MidtransVerifier struct {
	serverKey string
}

func NewMidtransVerifier(serverKey string) *MidtransVerifier {
	return &MidtransVerifier{serverKey: serverKey}
}

// Verify checks signature_key = SHA512(order_id + status_code + gross_amount + server key)
func (v *MidtransVerifier) Verify(payload []byte) (Event, error) {
	var notif coreapi.TransactionStatusResponse
	if err := json.Unmarshal(payload, &notif); err != nil {
		return Event{}, fmt.Errorf("midtrans notification: %v: %w", err, ErrMalformedPayload)
	}
	if notif.OrderID == "" || notif.StatusCode == "" || notif.GrossAmount == "" || notif.SignatureKey == "" {
		return Event{}, fmt.Errorf("midtrans notification missing fields: %w", ErrMalformedPayload)
	}

	expected := v.Sign(notif.OrderID, notif.StatusCode, notif.GrossAmount)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(notif.SignatureKey))) != 1 {
		return Event{}, fmt.Errorf("midtrans order %s: %w", notif.OrderID, ErrSignatureInvalid)
	}

	amount, err := decimal.NewFromString(notif.GrossAmount)
	if err != nil {
		return Event{}, fmt.Errorf("midtrans gross_amount %q: %w", notif.GrossAmount, ErrMalformedPayload)
	}

	transactionID := notif.TransactionID
	if transactionID == "" {
		transactionID = notif.OrderID
	}

	return Event{
		Provider:      models.PaymentGatewayMidtrans,
		Type:          notif.TransactionStatus,
		EventKey:      transactionID + ":" + notif.TransactionStatus,
		OrderRef:      notif.OrderID,
		TransactionID: transactionID,
		Succeeded:     midtransSettled(notif.TransactionStatus, notif.FraudStatus),
		Amount:        amount,
		Currency:      "IDR",
		Raw:           payload,
	}, nil
}

// Sign computes the signature_key Midtrans attaches to a notification
func (v *MidtransVerifier) Sign(orderID, statusCode, grossAmount string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + v.serverKey))
	return hex.EncodeToString(sum[:])
}

func midtransSettled(transactionStatus, fraudStatus string) bool {
	switch transactionStatus {
	case "settlement":
		return true
	case "capture":
		return fraudStatus == "" || fraudStatus == "accept"
	}
	return false
}
