package tasks

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golanka_travel_echo/internal/models"
	"golanka_travel_echo/internal/payments"
)

func confirmationNotice() payments.ConfirmationNotice {
	return payments.ConfirmationNotice{
		OrderID:       "6f8a4f8e-4d0b-4a53-9e5e-2f55d3c1b7a1",
		Recipient:     "o1.owner@example.com",
		Provider:      models.PaymentGatewayPayHere,
		TransactionID: "320032989563",
		Amount:        "5000.00",
		Currency:      "LKR",
	}
}

func TestSendPaymentConfirmation_CreateTask(t *testing.T) {
	def := &SendPaymentConfirmationTaskDef{}
	task, err := def.CreateTask(confirmationNotice())
	require.NoError(t, err)

	assert.Equal(t, "send_payment_confirmation", task.TaskName)
	assert.Equal(t, models.ScheduledTaskTypeOneTime, task.TaskType)
	assert.Equal(t, models.ScheduledTaskStatusActive, task.Status)
	assert.Equal(t, PaymentConfirmationMaxAttempt, task.MaxAttempt)
	assert.Equal(t, "o1.owner@example.com", task.Arguments["recipient"])
	assert.Equal(t, "payhere", task.Arguments["provider"])
}

func TestSendPaymentConfirmation_HandleExecution(t *testing.T) {
	task, err := (&SendPaymentConfirmationTaskDef{}).CreateTask(confirmationNotice())
	require.NoError(t, err)

	tests := []struct {
		name    string
		mailer  *fakeMailer
		args    map[string]interface{}
		wantErr error
		wantMsg string
	}{
		{
			name:   "sends to recipient",
			mailer: &fakeMailer{},
			args:   task.Arguments,
		},
		{
			name:    "mail failure is retried by the runner",
			mailer:  &fakeMailer{err: errors.New("421 service not available")},
			args:    task.Arguments,
			wantErr: payments.ErrNotificationFailed,
		},
		{
			name:    "missing recipient",
			mailer:  &fakeMailer{},
			args:    map[string]interface{}{"order_id": "O1"},
			wantMsg: "recipient and order_id are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := &SendPaymentConfirmationTaskDef{mailer: tt.mailer, brand: "GoLanka Travel", logger: slog.Default()}
			run := *task
			run.Arguments = tt.args

			result, err := def.HandleExecution(context.Background(), nil, run)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantMsg != "":
				require.ErrorContains(t, err, tt.wantMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, "success", result["status"])
				assert.Equal(t, []string{"o1.owner@example.com"}, tt.mailer.to)
				assert.Equal(t, "Booking Confirmed - GoLanka Travel", tt.mailer.subjects[0])
			}
		})
	}
}

func TestQueueDispatcher_Dispatch(t *testing.T) {
	db, mock := newMockDB(t)
	d := NewQueueDispatcher(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "scheduled_tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "task_type"}).AddRow(1, "onetime"))
	mock.ExpectCommit()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Dispatch(ctx, confirmationNotice()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueDispatcher_InsertFailure(t *testing.T) {
	db, mock := newMockDB(t)
	d := NewQueueDispatcher(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "scheduled_tasks"`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := d.Dispatch(context.Background(), confirmationNotice())
	require.ErrorContains(t, err, "queue payment confirmation")
	assert.NoError(t, mock.ExpectationsWereMet())
}
