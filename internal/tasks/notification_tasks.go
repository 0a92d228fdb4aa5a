package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"golanka_travel_echo/internal/models"
	"golanka_travel_echo/internal/payments"
	"golanka_travel_echo/internal/services"
)

// PaymentConfirmationMaxAttempt bounds delivery attempts of a single confirmation email
const PaymentConfirmationMaxAttempt = 3

// SendPaymentConfirmationTaskDef emails the order owner once a payment is reconciled
type SendPaymentConfirmationTaskDef struct {
	mailer services.Mailer
	brand  string
	logger *slog.Logger
}

// TaskID returns the unique identifier for this task
func (t *SendPaymentConfirmationTaskDef) TaskID() string {
	return "send_payment_confirmation"
}

// CreateTask builds a ScheduledTask record due immediately
func (t *SendPaymentConfirmationTaskDef) CreateTask(notice payments.ConfirmationNotice) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), notice, time.Now(), nil, models.ScheduledTaskTypeOneTime, PaymentConfirmationMaxAttempt)
}

// HandleExecution renders and sends the confirmation email
func (t *SendPaymentConfirmationTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	if t.mailer == nil {
		return nil, errors.New("mailer not configured")
	}

	var notice payments.ConfirmationNotice
	if err := parseArguments(task.Arguments, &notice); err != nil {
		return nil, err
	}
	if notice.Recipient == "" || notice.OrderID == "" {
		return nil, fmt.Errorf("recipient and order_id are required")
	}

	subject, body, err := services.RenderPaymentConfirmation(t.brand, notice)
	if err != nil {
		return nil, err
	}
	if err := t.mailer.SendEmail(ctx, []string{notice.Recipient}, subject, body); err != nil {
		return nil, fmt.Errorf("%w: %v", payments.ErrNotificationFailed, err)
	}

	t.logger.InfoContext(ctx, "payment confirmation email sent",
		"order_id", notice.OrderID,
		"recipient", notice.Recipient,
		"task_id", task.ID,
	)
	return map[string]interface{}{
		"status":    "success",
		"order_id":  notice.OrderID,
		"recipient": notice.Recipient,
	}, nil
}

// QueueDispatcher persists confirmation notices as scheduled tasks for the worker to send
type QueueDispatcher struct {
	db  *gorm.DB
	def *SendPaymentConfirmationTaskDef
}

func NewQueueDispatcher(db *gorm.DB) *QueueDispatcher {
	return &QueueDispatcher{db: db, def: &SendPaymentConfirmationTaskDef{}}
}

// Dispatch inserts a send_payment_confirmation task
func (d *QueueDispatcher) Dispatch(ctx context.Context, notice payments.ConfirmationNotice) error {
	task, err := d.def.CreateTask(notice)
	if err != nil {
		return err
	}
	// The order is already confirmed; a client hang-up must not lose the email.
	if err := d.db.WithContext(context.WithoutCancel(ctx)).Create(task).Error; err != nil {
		return fmt.Errorf("queue payment confirmation: %w", err)
	}
	return nil
}
