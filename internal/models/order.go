package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus represents the fulfilment state of an order
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusConfirmed  OrderStatus = "Confirmed"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// PaymentInfoStatusPaid is written once a provider transaction settles the order
const PaymentInfoStatusPaid = "Paid"

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusProcessing: {OrderStatusConfirmed, OrderStatusCancelled},
	// Confirmed -> Confirmed records a different provider transaction on an already paid order.
	OrderStatusConfirmed: {OrderStatusConfirmed, OrderStatusDelivered, OrderStatusCancelled},
}

// IsTerminal reports whether no further transition is allowed out of the status
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether the order lifecycle allows moving from s to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TerminalOrderStatuses lists the statuses a webhook must never move an order out of
func TerminalOrderStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusDelivered, OrderStatusCancelled}
}

// PaymentInfo holds the provider transaction that paid the order
type PaymentInfo struct {
	ID     string `gorm:"type:varchar(255);index" json:"id"`
	Status string `gorm:"type:varchar(50)" json:"status"`
}

// Order represents a purchase of one or more trip packages
type Order struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID        string          `gorm:"type:uuid;index;not null" json:"user_id"`
	PaymentInfo   PaymentInfo     `gorm:"embedded;embeddedPrefix:payment_" json:"payment_info"`
	PaidAt        *time.Time      `json:"paid_at"`
	ItemsPrice    decimal.Decimal `gorm:"type:decimal(15,2)" json:"items_price"`
	TaxPrice      decimal.Decimal `gorm:"type:decimal(15,2)" json:"tax_price"`
	ShippingPrice decimal.Decimal `gorm:"type:decimal(15,2)" json:"shipping_price"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(15,2)" json:"total_price"`
	OrderStatus   OrderStatus     `gorm:"type:varchar(20);default:'Processing';index" json:"order_status"`
	DeliveredAt   *time.Time      `json:"delivered_at"`

	// Relationships
	User       *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OrderItems []OrderItem `gorm:"foreignKey:OrderID" json:"order_items,omitempty"`
	Payments   []Payment   `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OwnerEmail returns the email of the preloaded owner, if any
func (o *Order) OwnerEmail() string {
	if o.User == nil {
		return ""
	}
	return o.User.Email
}

// OrderItem is a snapshot of a trip package at purchase time
type OrderItem struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	OrderID  string          `gorm:"type:uuid;index;not null" json:"order_id"`
	TripID   string          `gorm:"type:varchar(64);not null" json:"trip_id"`
	Name     string          `gorm:"type:varchar(255)" json:"name"`
	Quantity int             `json:"quantity"`
	Image    string          `gorm:"type:text" json:"image"`
	Price    decimal.Decimal `gorm:"type:decimal(15,2)" json:"price"`
}
