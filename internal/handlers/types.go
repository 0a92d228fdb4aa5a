package handlers

import "encoding/json"

// APIResponse is the envelope every JSON API endpoint answers with
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PayHereHashRequest is the body of POST /api/v1/payment/payhere/hash
type PayHereHashRequest struct {
	OrderID  string      `json:"order_id"`
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
}

// PayHereHashData is returned to the checkout page
type PayHereHashData struct {
	Hash       string `json:"hash"`
	MerchantID string `json:"merchantId"`
}
