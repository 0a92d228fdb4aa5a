package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// PaymentCallbackHistory keeps every webhook delivery received from a gateway,
// including the ones that failed verification.
type PaymentCallbackHistory struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	PaymentGateway PaymentGateway  `gorm:"type:varchar(50);not null;index" json:"payment_gateway"`
	EventKey       string          `gorm:"type:varchar(255);index" json:"event_key"`
	EventType      string          `gorm:"type:varchar(100)" json:"event_type"`
	OrderRef       string          `gorm:"type:varchar(100);index" json:"order_ref"`
	SignatureValid bool            `json:"signature_valid"`
	Outcome        string          `gorm:"type:varchar(50)" json:"outcome"`
	Error          string          `gorm:"type:text" json:"error,omitempty"`
	Metadata       json.RawMessage `gorm:"type:jsonb" json:"metadata"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}
