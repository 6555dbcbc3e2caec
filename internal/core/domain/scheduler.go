package domain

import "time"

// Built-in background tasks.
const (
	// TaskIDUsageScan rescans every asset for references, batch by batch.
	TaskIDUsageScan = "usage-scan"

	// TaskIDContentIndex fetches every published document and reindexes
	// it from its rendered page.
	TaskIDContentIndex = "content-index"
)

// TaskIDs lists the built-in tasks in display order.
var TaskIDs = []string{TaskIDUsageScan, TaskIDContentIndex}

var taskNames = map[string]string{
	TaskIDUsageScan:    "Usage Scan",
	TaskIDContentIndex: "Content Index",
}

// TaskName returns the display name of a built-in task, and false for an
// unknown id.
func TaskName(id string) (string, bool) {
	name, ok := taskNames[id]
	return name, ok
}

// ScheduledTask is the persisted state of a recurring task.
type ScheduledTask struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Interval    time.Duration `json:"interval"`
	LastRun     time.Time     `json:"last_run"`
	NextRun     time.Time     `json:"next_run"`
	LastError   string        `json:"last_error,omitempty"`
	LastSuccess time.Time     `json:"last_success"`
	Enabled     bool          `json:"enabled"`
}

// Due reports whether an enabled task should run at now. A task that never
// had a next run scheduled is due immediately.
func (t *ScheduledTask) Due(now time.Time) bool {
	return t.Enabled && (t.NextRun.IsZero() || !t.NextRun.After(now))
}

// TaskResult is the outcome of one task run.
type TaskResult struct {
	TaskID    string    `json:"task_id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`

	// ItemsProcessed counts assets scanned or documents indexed.
	ItemsProcessed int `json:"items_processed"`
}

// Elapsed returns how long the run took.
func (r TaskResult) Elapsed() time.Duration {
	if r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// SchedulerConfig configures the background tasks.
type SchedulerConfig struct {
	// Enabled is the master switch.
	Enabled bool

	TaskConfigs map[string]TaskConfig
}

// TaskConfig configures one task.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// GetTaskConfig returns the configuration for a specific task.
// Returns a zero TaskConfig if the task is not configured.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig scans usage daily. The content sweep fetches every
// published document, so it is opt-in.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDUsageScan: {
				Enabled:  true,
				Interval: 24 * time.Hour,
			},
			TaskIDContentIndex: {
				Enabled:  false,
				Interval: 6 * time.Hour,
			},
		},
	}
}

// TaskStatus pairs a task's state with its most recent run, if any.
type TaskStatus struct {
	Task ScheduledTask `json:"task"`
	Last *TaskResult   `json:"last,omitempty"`
}
