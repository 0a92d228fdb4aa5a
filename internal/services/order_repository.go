package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"golanka_travel_echo/internal/models"
	"golanka_travel_echo/internal/payments"
)

// OrderRepository is the Postgres-backed payments.OrderStore
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// FindOrder loads an order with its owner. References that are not UUIDs cannot exist.
func (r *OrderRepository) FindOrder(ctx context.Context, orderID string) (*models.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, fmt.Errorf("order ref %q: %w", orderID, payments.ErrOrderNotFound)
	}

	var order models.Order
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", orderID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, payments.ErrOrderNotFound)
		}
		return nil, err
	}
	return &order, nil
}

// errPaymentRecorded rolls back a transition whose transaction id was inserted concurrently
var errPaymentRecorded = errors.New("payment already recorded")

// ConfirmPayment moves the order to Confirmed with one conditional UPDATE and records the
// payment in the same transaction. A transaction id already present in payments never
// matches, so an older transaction replayed after a re-payment stays a duplicate. When no
// row matches, a fresh read tells a duplicate delivery apart from a terminal order.
func (r *OrderRepository) ConfirmPayment(ctx context.Context, req payments.ConfirmPaymentRequest) (payments.TransitionResult, error) {
	var result payments.TransitionResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ?", req.OrderID).
			Where("(payment_id IS NULL OR payment_id <> ?)", req.TransactionID).
			Where("order_status NOT IN ?", models.TerminalOrderStatuses()).
			Where("NOT EXISTS (SELECT 1 FROM payments WHERE payment_gateway = ? AND transaction_id = ?)", req.Provider, req.TransactionID).
			Updates(map[string]interface{}{
				"order_status":   models.OrderStatusConfirmed,
				"payment_id":     req.TransactionID,
				"payment_status": models.PaymentInfoStatusPaid,
				"paid_at":        time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			var err error
			result, err = classifyUnapplied(tx, req)
			return err
		}

		payment := models.Payment{
			OrderID:         req.OrderID,
			UserID:          req.UserID,
			PaymentGateway:  req.Provider,
			TransactionID:   req.TransactionID,
			Amount:          req.Amount,
			Currency:        req.Currency,
			Status:          models.PaymentStatusCompleted,
			GatewayResponse: jsonOrQuoted(req.Raw),
		}
		if err := tx.Create(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errPaymentRecorded
			}
			return fmt.Errorf("record payment %s: %w", req.TransactionID, err)
		}
		result = payments.TransitionApplied
		return nil
	})
	if errors.Is(err, errPaymentRecorded) {
		return payments.TransitionDuplicate, nil
	}
	if err != nil {
		return 0, err
	}
	return result, nil
}

func classifyUnapplied(tx *gorm.DB, req payments.ConfirmPaymentRequest) (payments.TransitionResult, error) {
	var current models.Order
	err := tx.Select("id", "order_status", "payment_id", "payment_status").
		Where("id = ?", req.OrderID).
		First(&current).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("order %s: %w", req.OrderID, payments.ErrOrderNotFound)
		}
		return 0, err
	}

	if current.PaymentInfo.ID == req.TransactionID {
		return payments.TransitionDuplicate, nil
	}

	var recorded int64
	err = tx.Model(&models.Payment{}).Unscoped().
		Where("payment_gateway = ? AND transaction_id = ?", req.Provider, req.TransactionID).
		Count(&recorded).Error
	if err != nil {
		return 0, err
	}

	switch {
	case recorded > 0:
		return payments.TransitionDuplicate, nil
	case current.OrderStatus.IsTerminal():
		return payments.TransitionRejected, nil
	}
	return 0, fmt.Errorf("order %s changed while confirming transaction %s", req.OrderID, req.TransactionID)
}
