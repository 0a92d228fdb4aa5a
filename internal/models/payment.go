package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentGateway string

const (
	PaymentGatewayStripe   PaymentGateway = "stripe"
	PaymentGatewayPayHere  PaymentGateway = "payhere"
	PaymentGatewayMidtrans PaymentGateway = "midtrans"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusFailed    PaymentStatus = "Failed"
	PaymentStatusRefunded  PaymentStatus = "Refunded"
)

// Payment records a provider transaction that was applied to an order
type Payment struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	OrderID         string          `gorm:"type:uuid;index;not null" json:"order_id"`
	UserID          string          `gorm:"type:uuid;index" json:"user_id"`
	PaymentGateway  PaymentGateway  `gorm:"type:varchar(50);not null;uniqueIndex:ux_payments_gateway_transaction,priority:1" json:"payment_gateway"`
	TransactionID   string          `gorm:"type:varchar(255);not null;uniqueIndex:ux_payments_gateway_transaction,priority:2" json:"transaction_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount"`
	Currency        string          `gorm:"type:varchar(10)" json:"currency"`
	Status          PaymentStatus   `gorm:"type:varchar(20)" json:"status"`
	GatewayResponse json.RawMessage `gorm:"type:jsonb" json:"gateway_response,omitempty"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
