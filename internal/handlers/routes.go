package handlers

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the health check, the provider webhooks that have a verifier
// configured and the /api/v1 endpoints. apiMiddleware applies to /api/v1 only.
func RegisterRoutes(e *echo.Echo, webhooks *WebhookHandler, payment *PaymentHandler, apiMiddleware ...echo.MiddlewareFunc) {
	e.GET("/", Health)

	if webhooks.verifiers.Stripe != nil {
		e.POST("/webhooks/stripe", webhooks.StripeWebhook)
		e.POST("/api/v1/webhooks/stripe", webhooks.StripeWebhook)
	}
	if webhooks.verifiers.PayHere != nil {
		e.POST("/webhooks/payhere", webhooks.PayHereWebhook)
	}
	if webhooks.verifiers.Midtrans != nil {
		e.POST("/webhooks/midtrans", webhooks.MidtransWebhook)
	}

	api := e.Group("/api/v1", apiMiddleware...)
	api.POST("/payment/payhere/hash", payment.PayHereHash)
}
