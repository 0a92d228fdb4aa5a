package services

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"golanka_travel_echo/internal/models"
)

// CallbackHistoryRepository appends webhook deliveries to payment_callback_histories
type CallbackHistoryRepository struct {
	db *gorm.DB
}

func NewCallbackHistoryRepository(db *gorm.DB) *CallbackHistoryRepository {
	return &CallbackHistoryRepository{db: db}
}

// RecordCallback stores one delivery. Metadata that is not JSON is stored as a JSON string.
func (r *CallbackHistoryRepository) RecordCallback(ctx context.Context, entry models.PaymentCallbackHistory) error {
	entry.Metadata = jsonOrQuoted(entry.Metadata)
	return r.db.WithContext(ctx).Create(&entry).Error
}

// PruneCallbacks hard-deletes deliveries older than the cutoff and returns how many went
func (r *CallbackHistoryRepository) PruneCallbacks(ctx context.Context, olderThan time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Unscoped().
		Where("created_at < ?", olderThan).
		Delete(&models.PaymentCallbackHistory{})
	return res.RowsAffected, res.Error
}

func jsonOrQuoted(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return json.RawMessage(raw)
	}
	quoted, _ := json.Marshal(string(raw))
	return quoted
}
