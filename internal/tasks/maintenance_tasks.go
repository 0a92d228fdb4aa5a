package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"golanka_travel_echo/internal/models"
	"golanka_travel_echo/internal/services"
)

const (
	defaultRetentionDays = 90
	dailyRule            = "FREQ=DAILY"
)

// PruneCallbackHistoryArgs defines the arguments for the prune task
type PruneCallbackHistoryArgs struct {
	RetentionDays int `json:"retention_days"`
}

// PruneCallbackHistoryTaskDef deletes webhook deliveries older than the retention window
type PruneCallbackHistoryTaskDef struct {
	logger *slog.Logger
	now    func() time.Time
}

// TaskID returns the unique identifier for this task
func (t *PruneCallbackHistoryTaskDef) TaskID() string {
	return "prune_callback_history"
}

// CreateTask builds the recurring daily task, first due at start
func (t *PruneCallbackHistoryTaskDef) CreateTask(retentionDays int, start time.Time) (*models.ScheduledTask, error) {
	rule := dailyRule
	return BuildScheduledTask(t.TaskID(), PruneCallbackHistoryArgs{RetentionDays: retentionDays}, start, &rule, models.ScheduledTaskTypeRecurring, 1)
}

// HandleExecution hard-deletes deliveries older than retention_days
func (t *PruneCallbackHistoryTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	var args PruneCallbackHistoryArgs
	if err := parseArguments(task.Arguments, &args); err != nil {
		return nil, err
	}
	if args.RetentionDays <= 0 {
		args.RetentionDays = defaultRetentionDays
	}

	now := time.Now
	if t.now != nil {
		now = t.now
	}
	cutoff := now().AddDate(0, 0, -args.RetentionDays)

	deleted, err := services.NewCallbackHistoryRepository(db).PruneCallbacks(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("prune callback history: %w", err)
	}

	t.logger.InfoContext(ctx, "callback history pruned", "deleted", deleted, "cutoff", cutoff)
	return map[string]interface{}{
		"status":  "success",
		"deleted": deleted,
		"cutoff":  cutoff.Format(time.RFC3339),
	}, nil
}

// EnsureRecurring inserts task unless an active task with the same name already exists
func EnsureRecurring(ctx context.Context, db *gorm.DB, task *models.ScheduledTask) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&models.ScheduledTask{}).
		Where("task_name = ? AND status = ?", task.TaskName, models.ScheduledTaskStatusActive).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check %s: %w", task.TaskName, err)
	}
	if count > 0 {
		return false, nil
	}
	if err := db.WithContext(ctx).Create(task).Error; err != nil {
		return false, fmt.Errorf("create %s: %w", task.TaskName, err)
	}
	return true, nil
}
