package tasks

import (
	"log/slog"

	"golanka_travel_echo/internal/services"
)

// Dependencies are the collaborators task handlers need at execution time
type Dependencies struct {
	Mailer services.Mailer
	Brand  string
	Logger *slog.Logger
}

// DefineTasks registers all available tasks
func DefineTasks(r *Registry, deps Dependencies) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	logInfo := &LogInfoTaskDef{logger: deps.Logger}
	r.Register(logInfo.TaskID(), logInfo.HandleExecution)

	confirmation := &SendPaymentConfirmationTaskDef{mailer: deps.Mailer, brand: deps.Brand, logger: deps.Logger}
	r.Register(confirmation.TaskID(), confirmation.HandleExecution)

	prune := &PruneCallbackHistoryTaskDef{logger: deps.Logger}
	r.Register(prune.TaskID(), prune.HandleExecution)
}
