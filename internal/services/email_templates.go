package services

import (
	"bytes"
	"fmt"
	"html/template"

	"golanka_travel_echo/internal/models"
	"golanka_travel_echo/internal/payments"
)

var paymentConfirmationTmpl = template.Must(template.New("payment_confirmation").Parse(`
<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
  <h1 style="color: #4F46E5;">Payment Successful!</h1>
  <p>Hi there,</p>
  <p>Great news! Your payment for <strong>Order #{{.OrderID}}</strong> was successful{{if .Via}} via {{.Via}}{{end}}.</p>
  <div style="background-color: #f3f4f6; padding: 15px; border-radius: 8px; margin: 20px 0;">
    <p style="margin: 5px 0;"><strong>Amount Paid:</strong> {{.Amount}} {{.Currency}}</p>
    <p style="margin: 5px 0;"><strong>Transaction ID:</strong> {{.TransactionID}}</p>
  </div>
  <p>Enjoy your trip!</p>
  <p>Best Regards,<br/><strong>The {{.Brand}} Team</strong></p>
</div>
`))

var providerNames = map[models.PaymentGateway]string{
	models.PaymentGatewayStripe:   "Stripe",
	models.PaymentGatewayPayHere:  "PayHere",
	models.PaymentGatewayMidtrans: "Midtrans",
}

// RenderPaymentConfirmation builds the subject and HTML body of a payment confirmation email
func RenderPaymentConfirmation(brand string, notice payments.ConfirmationNotice) (string, string, error) {
	var body bytes.Buffer
	err := paymentConfirmationTmpl.Execute(&body, struct {
		payments.ConfirmationNotice
		Brand string
		Via   string
	}{notice, brand, providerNames[notice.Provider]})
	if err != nil {
		return "", "", fmt.Errorf("render payment confirmation: %w", err)
	}
	return fmt.Sprintf("Booking Confirmed - %s", brand), body.String(), nil
}
