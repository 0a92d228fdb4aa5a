package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"golanka_travel_echo/internal/models"
	"golanka_travel_echo/internal/payments"
)

const testOrderID = "6f8a4f8e-4d0b-4a53-9e5e-2f55d3c1b7a1"

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return db, mock
}

func confirmRequest() payments.ConfirmPaymentRequest {
	return payments.ConfirmPaymentRequest{
		OrderID:       testOrderID,
		UserID:        "0b4c3c61-7d0e-4b7a-a3b8-1f1f0c7e4d22",
		Provider:      models.PaymentGatewayStripe,
		TransactionID: "cs_test_1",
		Amount:        decimal.New(500000, -2),
		Currency:      "LKR",
		Raw:           []byte(`{"id":"evt_test_1"}`),
	}
}

func TestOrderRepository_FindOrder(t *testing.T) {
	t.Run("non uuid reference never hits the database", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewOrderRepository(db)

		_, err := repo.FindOrder(context.Background(), "ORD-123")
		require.ErrorIs(t, err, payments.ErrOrderNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewOrderRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "orders"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindOrder(context.Background(), testOrderID)
		require.ErrorIs(t, err, payments.ErrOrderNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loads owner", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewOrderRepository(db)
		userID := "0b4c3c61-7d0e-4b7a-a3b8-1f1f0c7e4d22"

		mock.ExpectQuery(`SELECT \* FROM "orders"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "order_status", "payment_id", "payment_status"}).
				AddRow(testOrderID, userID, "Processing", "", ""))
		mock.ExpectQuery(`SELECT \* FROM "users"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username"}).
				AddRow(userID, "o1.owner@example.com", "o1"))

		order, err := repo.FindOrder(context.Background(), testOrderID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusProcessing, order.OrderStatus)
		assert.Equal(t, "o1.owner@example.com", order.OwnerEmail())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_ConfirmPayment(t *testing.T) {
	statusRow := func(status, paymentID string) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "order_status", "payment_id", "payment_status"}).
			AddRow(testOrderID, status, paymentID, "Paid")
	}
	countRow := func(n int) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"count"}).AddRow(n)
	}

	tests := []struct {
		name    string
		expect  func(mock sqlmock.Sqlmock)
		want    payments.TransitionResult
		wantErr error
	}{
		{
			name: "applies transition and records payment",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE "orders" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO "payments"`).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			want: payments.TransitionApplied,
		},
		{
			name: "same transaction already recorded",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE "orders" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`SELECT .* FROM "orders"`).WillReturnRows(statusRow("Confirmed", "cs_test_1"))
				mock.ExpectCommit()
			},
			want: payments.TransitionDuplicate,
		},
		{
			name: "delivered order is not reopened",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE "orders" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`SELECT .* FROM "orders"`).WillReturnRows(statusRow("Delivered", "cs_old"))
				mock.ExpectQuery(`SELECT count\(\*\) FROM "payments"`).WillReturnRows(countRow(0))
				mock.ExpectCommit()
			},
			want: payments.TransitionRejected,
		},
		{
			name: "older transaction replayed after a newer payment",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE "orders" SET .* NOT EXISTS \(SELECT 1 FROM payments`).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`SELECT .* FROM "orders"`).WillReturnRows(statusRow("Confirmed", "cs_test_2"))
				mock.ExpectQuery(`SELECT count\(\*\) FROM "payments"`).WillReturnRows(countRow(1))
				mock.ExpectCommit()
			},
			want: payments.TransitionDuplicate,
		},
		{
			name: "payment inserted concurrently is a duplicate",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE "orders" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO "payments"`).WillReturnError(&pgconn.PgError{
					Code:           "23505",
					Message:        "duplicate key value violates unique constraint",
					ConstraintName: "ux_payments_gateway_transaction",
				})
				mock.ExpectRollback()
			},
			want: payments.TransitionDuplicate,
		},
		{
			name: "order vanished",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE "orders" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`SELECT .* FROM "orders"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
				mock.ExpectRollback()
			},
			wantErr: payments.ErrOrderNotFound,
		},
		{
			name: "payment insert failure rolls back the transition",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE "orders" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO "payments"`).WillReturnError(errors.New("connection reset by peer"))
				mock.ExpectRollback()
			},
			wantErr: errors.New("record payment"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewOrderRepository(db)
			tt.expect(mock)

			got, err := repo.ConfirmPayment(context.Background(), confirmRequest())
			switch {
			case tt.wantErr == nil:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			case errors.Is(tt.wantErr, payments.ErrOrderNotFound):
				require.ErrorIs(t, err, payments.ErrOrderNotFound)
			default:
				require.ErrorContains(t, err, tt.wantErr.Error())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCallbackHistoryRepository_RecordCallback(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCallbackHistoryRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "payment_callback_histories"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.RecordCallback(context.Background(), models.PaymentCallbackHistory{
		PaymentGateway: models.PaymentGatewayPayHere,
		EventKey:       "320032989563:order-1",
		Outcome:        string(payments.OutcomeConfirmed),
		Metadata:       []byte("merchant_id=1221149&order_id=order-1"),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJSONOrQuoted(t *testing.T) {
	assert.Nil(t, jsonOrQuoted(nil))
	assert.JSONEq(t, `{"a":1}`, string(jsonOrQuoted([]byte(`{"a":1}`))))
	assert.JSONEq(t, `"a=1&b=2"`, string(jsonOrQuoted([]byte("a=1&b=2"))))
}
