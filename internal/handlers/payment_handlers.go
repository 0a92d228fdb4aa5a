package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"golanka_travel_echo/internal/payments"
)

type PaymentHandler struct {
	payhere *payments.PayHereVerifier
}

// NewPaymentHandler creates the checkout helper endpoints. payhere may be nil.
func NewPaymentHandler(payhere *payments.PayHereVerifier) *PaymentHandler {
	return &PaymentHandler{payhere: payhere}
}

// PayHereHash handles POST /api/v1/payment/payhere/hash
func (h *PaymentHandler) PayHereHash(c echo.Context) error {
	if h.payhere == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "PayHere credentials missing on server")
	}

	var req PayHereHashRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if req.OrderID == "" || req.Currency == "" || req.Amount == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "order_id, amount and currency are required")
	}

	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil || !amount.IsPositive() {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid amount")
	}

	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "PayHere Hash Generated",
		Data: PayHereHashData{
			Hash:       h.payhere.CheckoutHash(req.OrderID, amount, req.Currency),
			MerchantID: h.payhere.MerchantID(),
		},
	})
}
