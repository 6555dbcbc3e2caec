package driving

import (
	"context"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

// Scheduler runs the periodic usage scan and content index sweeps.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or an error occurs.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error

	// RunNow executes one task immediately and records its result.
	RunNow(ctx context.Context, taskID string) (domain.TaskResult, error)

	// Tasks returns each built-in task with its most recent run.
	Tasks(ctx context.Context) ([]domain.TaskStatus, error)

	// History returns up to limit past runs of a task, most recent first.
	History(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)
}
