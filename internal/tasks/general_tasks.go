package tasks

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"golanka_travel_echo/internal/models"
)

// LogInfoTaskDef writes its message argument to the log. Useful to check a worker is alive.
type LogInfoTaskDef struct {
	logger *slog.Logger
}

// TaskID returns the unique identifier for this task
func (t *LogInfoTaskDef) TaskID() string {
	return "log_info"
}

// HandleExecution handles logging information
func (t *LogInfoTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	message, ok := task.Arguments["message"].(string)
	if !ok {
		message = "No message provided"
	}
	t.logger.InfoContext(ctx, "log_info task", "task_id", task.ID, "message", message)

	return map[string]interface{}{
		"status":            "success",
		"message":           message,
		"max_attempts_info": task.MaxAttempt,
	}, nil
}
