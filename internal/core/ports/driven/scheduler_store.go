package driven

import (
	"context"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

// SchedulerStore keeps background task state and run history across
// restarts, so a sweep that was due while the process was down runs on the
// next start.
type SchedulerStore interface {
	// GetTask returns nil and no error if the task does not exist.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// ListTasks returns all tasks ordered by id.
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask creates or updates a task by id.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	// DeleteTask removes a task and its history.
	DeleteTask(ctx context.Context, taskID string) error

	// RecordResult appends one run to the history.
	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// GetTaskHistory returns up to limit runs, most recent first. A limit
	// of zero returns every run.
	GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// LatestResults returns the most recent run keyed by task id.
	LatestResults(ctx context.Context) (map[string]domain.TaskResult, error)

	// PruneHistory keeps the most recent keep runs of each task.
	PruneHistory(ctx context.Context, keep int) error
}
