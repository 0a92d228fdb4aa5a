package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"golanka_travel_echo/internal/models"
)

const (
	defaultBatchSize  = 50
	defaultLockTTL    = 5 * time.Minute
	defaultRetryDelay = 5 * time.Minute
)

// Locker claims a task so that only one worker executes it
type Locker interface {
	AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// Runner executes due scheduled tasks and records their history
type Runner struct {
	db         *gorm.DB
	registry   *Registry
	locker     Locker
	logger     *slog.Logger
	now        func() time.Time
	batchSize  int
	lockTTL    time.Duration
	retryDelay time.Duration
}

// NewRunner creates a runner. locker may be nil when a single worker is deployed.
func NewRunner(db *gorm.DB, registry *Registry, locker Locker, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		db:         db,
		registry:   registry,
		locker:     locker,
		logger:     logger,
		now:        time.Now,
		batchSize:  defaultBatchSize,
		lockTTL:    defaultLockTTL,
		retryDelay: defaultRetryDelay,
	}
}

// ProcessDue runs every active task whose due time has passed and returns how many were executed
func (r *Runner) ProcessDue(ctx context.Context) (int, error) {
	var pending []models.ScheduledTask
	err := r.db.WithContext(ctx).
		Where("status = ? AND due <= ?", models.ScheduledTaskStatusActive, r.now()).
		Order("due").
		Limit(r.batchSize).
		Find(&pending).Error
	if err != nil {
		return 0, fmt.Errorf("fetch pending tasks: %w", err)
	}
	if len(pending) == 0 {
		r.logger.DebugContext(ctx, "no pending tasks")
		return 0, nil
	}

	r.logger.InfoContext(ctx, "found pending tasks", "count", len(pending))

	executed := 0
	for _, task := range pending {
		if ctx.Err() != nil {
			return executed, ctx.Err()
		}
		ran, err := r.claimAndExecute(ctx, task)
		if err != nil {
			r.logger.ErrorContext(ctx, "task bookkeeping failed", "task_id", task.ID, "task_name", task.TaskName, "error", err)
			continue
		}
		if ran {
			executed++
		}
	}
	return executed, nil
}

func (r *Runner) claimAndExecute(ctx context.Context, task models.ScheduledTask) (bool, error) {
	if r.locker == nil {
		return true, r.execute(ctx, task)
	}

	key := "task:" + strconv.FormatUint(uint64(task.ID), 10)
	token := uuid.NewString()
	ok, err := r.locker.AcquireLock(ctx, key, token, r.lockTTL)
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		r.logger.DebugContext(ctx, "task claimed by another worker", "task_id", task.ID)
		return false, nil
	}
	defer func() {
		if err := r.locker.ReleaseLock(context.WithoutCancel(ctx), key, token); err != nil {
			r.logger.WarnContext(ctx, "release task lock", "task_id", task.ID, "error", err)
		}
	}()

	current, due, err := r.reload(ctx, task)
	if err != nil {
		return false, err
	}
	if !due {
		r.logger.DebugContext(ctx, "task already handled by another worker", "task_id", task.ID)
		return false, nil
	}
	return true, r.execute(ctx, current)
}

// reload re-reads the task under the lock. The batch snapshot is stale when another
// worker ran the task between the fetch and the claim.
func (r *Runner) reload(ctx context.Context, task models.ScheduledTask) (models.ScheduledTask, bool, error) {
	var current models.ScheduledTask
	err := r.db.WithContext(ctx).
		Where("id = ? AND status = ? AND due <= ? AND attempt = ?", task.ID, models.ScheduledTaskStatusActive, r.now(), task.Attempt).
		First(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return task, false, nil
	}
	if err != nil {
		return task, false, fmt.Errorf("reload task: %w", err)
	}
	return current, true, nil
}

func (r *Runner) execute(ctx context.Context, task models.ScheduledTask) error {
	log := r.logger.With("task_id", task.ID, "task_name", task.TaskName)
	attempt := task.Attempt + 1

	if task.Arguments == nil {
		task.Arguments = make(map[string]interface{})
	}

	handler, found := r.registry.Get(task.TaskName)
	if !found {
		log.ErrorContext(ctx, "task handler not found, marking as failure")
		now := r.now()
		history := models.ScheduledTaskHistory{
			ScheduledTaskID: task.ID,
			TaskName:        task.TaskName,
			RunAt:           now,
			Status:          "handler_not_found",
			AttemptNumber:   attempt,
			Arguments:       task.Arguments,
			Result:          map[string]interface{}{"error": "Handler not found"},
		}
		return r.record(ctx, task.ID, history, map[string]interface{}{
			"status":   models.ScheduledTaskStatusFailure,
			"last_run": now,
			"attempt":  attempt,
		})
	}

	startTime := r.now()
	result, runErr := handler(ctx, r.db.WithContext(ctx), task)
	runtimeMs := int(time.Since(startTime).Milliseconds())

	status := "success"
	if runErr != nil {
		status = "failure"
		result = map[string]interface{}{"error": runErr.Error()}
		log.ErrorContext(ctx, "task failed", "attempt", attempt, "max_attempt", task.MaxAttempt, "error", runErr)
	} else {
		log.InfoContext(ctx, "task completed", "attempt", attempt, "runtime_ms", runtimeMs)
	}

	history := models.ScheduledTaskHistory{
		ScheduledTaskID: task.ID,
		TaskName:        task.TaskName,
		RunAt:           startTime,
		Runtime:         runtimeMs,
		Status:          status,
		AttemptNumber:   attempt,
		Arguments:       task.Arguments,
		Result:          result,
	}
	return r.record(ctx, task.ID, history, r.planUpdate(task, attempt, runErr, startTime))
}

// planUpdate decides the task row changes after one run
func (r *Runner) planUpdate(task models.ScheduledTask, attempt int, runErr error, ranAt time.Time) map[string]interface{} {
	updates := map[string]interface{}{
		"last_run": ranAt,
		"attempt":  attempt,
	}

	maxAttempt := task.MaxAttempt
	if maxAttempt < 1 {
		maxAttempt = 1
	}

	if runErr != nil && attempt < maxAttempt {
		updates["status"] = models.ScheduledTaskStatusActive
		updates["due"] = ranAt.Add(r.retryDelay * time.Duration(attempt))
		return updates
	}

	switch task.TaskType {
	case models.ScheduledTaskTypeRecurring:
		// check the next due is in the future, to avoid the task being executed repeatedly
		nextDue := task.NextDueAfter(ranAt)
		if nextDue.After(task.Due) && nextDue.After(ranAt) {
			updates["status"] = models.ScheduledTaskStatusActive
			updates["due"] = nextDue
			updates["attempt"] = 0
		} else {
			updates["status"] = models.ScheduledTaskStatusDone
		}
	default:
		if runErr != nil {
			updates["status"] = models.ScheduledTaskStatusFailure
		} else {
			updates["status"] = models.ScheduledTaskStatusDone
		}
	}
	return updates
}

func (r *Runner) record(ctx context.Context, taskID uint, history models.ScheduledTaskHistory, updates map[string]interface{}) error {
	return r.db.WithContext(context.WithoutCancel(ctx)).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("create task history: %w", err)
		}
		if err := tx.Model(&models.ScheduledTask{}).Where("id = ?", taskID).Updates(updates).Error; err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		return nil
	})
}
