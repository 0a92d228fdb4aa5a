package payments

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"golanka_travel_echo/internal/models"
)

// PayHereStatusSuccess is the status_code PayHere sends for a settled payment
const PayHereStatusSuccess = "2"

var payHereRequiredFields = []string{
	"order_id", "payment_id", "payhere_amount", "payhere_currency", "status_code", "md5sig",
}

// PayHereVerifier checks PayHere notify_url callbacks
type PayHereVerifier struct {
	merchantID string
	secretHash string
}

// NewPayHereVerifier hashes the merchant secret once; it is static per deployment.
func NewPayHereVerifier(merchantID, merchantSecret string) *PayHereVerifier {
	return &PayHereVerifier{
		merchantID: merchantID,
		secretHash: md5Upper(merchantSecret),
	}
}

// MerchantID returns the configured merchant id
func (v *PayHereVerifier) MerchantID() string {
	return v.merchantID
}

// Verify validates the callback form and normalizes it into an Event.
// The merchant id is checked before anything is hashed.
func (v *PayHereVerifier) Verify(form url.Values) (Event, error) {
	merchantID := form.Get("merchant_id")
	if merchantID != v.merchantID {
		return Event{}, fmt.Errorf("payhere merchant %q: %w", merchantID, ErrMerchantMismatch)
	}

	var missing []string
	for _, field := range payHereRequiredFields {
		if form.Get(field) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return Event{}, fmt.Errorf("payhere missing %s: %w", strings.Join(missing, ", "), ErrMalformedPayload)
	}

	orderID := form.Get("order_id")
	amount := form.Get("payhere_amount")
	currency := form.Get("payhere_currency")
	statusCode := form.Get("status_code")

	localSig := md5Upper(merchantID + orderID + amount + currency + statusCode + v.secretHash)
	remoteSig := strings.ToUpper(form.Get("md5sig"))
	if subtle.ConstantTimeCompare([]byte(localSig), []byte(remoteSig)) != 1 {
		return Event{}, fmt.Errorf("payhere order %s: %w", orderID, ErrSignatureInvalid)
	}

	parsedAmount, err := decimal.NewFromString(amount)
	if err != nil {
		return Event{}, fmt.Errorf("payhere amount %q: %w", amount, ErrMalformedPayload)
	}

	paymentID := form.Get("payment_id")
	return Event{
		Provider:      models.PaymentGatewayPayHere,
		Type:          "status_code_" + statusCode,
		EventKey:      paymentID + ":" + orderID,
		OrderRef:      orderID,
		TransactionID: paymentID,
		Succeeded:     statusCode == PayHereStatusSuccess,
		Amount:        parsedAmount,
		Currency:      currency,
		Raw:           []byte(form.Encode()),
	}, nil
}

// CheckoutHash computes the hash the PayHere checkout form must carry.
// The amount is always rendered with two decimals.
func (v *PayHereVerifier) CheckoutHash(orderID string, amount decimal.Decimal, currency string) string {
	return md5Upper(v.merchantID + orderID + amount.StringFixed(2) + currency + v.secretHash)
}

// Sign produces the md5sig PayHere would send for the given callback fields.
func (v *PayHereVerifier) Sign(orderID, amount, currency, statusCode string) string {
	return md5Upper(v.merchantID + orderID + amount + currency + statusCode + v.secretHash)
}

func md5Upper(s string) string {
	sum := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
