package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driven"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driving"
	"github.com/custodia-labs/sourcemark/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyRetention is how many results are kept per task.
const historyRetention = 100

// Scheduler manages background task execution.
// It is a pure core service with no external control API.
type Scheduler struct {
	config  domain.SchedulerConfig
	store   driven.SchedulerStore
	usage   driving.UsageService
	content driving.ContentBatchService
	now     func() time.Time

	mu      sync.Mutex
	running bool
	active  map[string]bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration. Either service may
// be nil, which turns its task into a no-op. Without a store nothing is
// scheduled and only RunNow executes tasks.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	usage driving.UsageService,
	content driving.ContentBatchService,
) *Scheduler {
	return &Scheduler{
		config:  config,
		store:   store,
		usage:   usage,
		content: content,
		now:     time.Now,
		active:  make(map[string]bool),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	// Initialise tasks in store
	if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// RunNow executes a task synchronously and records its result.
// Returns domain.ErrScanInProgress if the task is already running.
func (s *Scheduler) RunNow(ctx context.Context, taskID string) (domain.TaskResult, error) {
	if _, ok := domain.TaskName(taskID); !ok {
		return domain.TaskResult{}, fmt.Errorf("task %q: %w", taskID, domain.ErrNotFound)
	}
	if !s.claim(taskID) {
		return domain.TaskResult{}, fmt.Errorf("task %q: %w", taskID, domain.ErrScanInProgress)
	}
	defer s.release(taskID)

	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return domain.TaskResult{}, err
	}
	return s.execute(ctx, task), nil
}

// Tasks returns every built-in task with its latest run. Tasks that never
// ran are reported from configuration.
func (s *Scheduler) Tasks(ctx context.Context) ([]domain.TaskStatus, error) {
	var latest map[string]domain.TaskResult
	if s.store != nil {
		var err error
		if latest, err = s.store.LatestResults(ctx); err != nil {
			return nil, fmt.Errorf("latest task results: %w", err)
		}
	}

	statuses := make([]domain.TaskStatus, 0, len(domain.TaskIDs))
	for _, id := range domain.TaskIDs {
		task, err := s.loadTask(ctx, id)
		if err != nil {
			return nil, err
		}
		status := domain.TaskStatus{Task: *task}
		if r, ok := latest[id]; ok {
			status.Last = &r
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// History returns up to limit past runs of a task, most recent first.
func (s *Scheduler) History(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	if _, ok := domain.TaskName(taskID); !ok {
		return nil, fmt.Errorf("task %q: %w", taskID, domain.ErrNotFound)
	}
	if s.store == nil {
		return nil, nil
	}
	return s.store.GetTaskHistory(ctx, taskID, limit)
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	for _, id := range domain.TaskIDs {
		taskCfg := s.config.GetTaskConfig(id)
		if !taskCfg.Enabled {
			continue
		}
		name, _ := domain.TaskName(id)
		if err := s.ensureTask(ctx, id, name, taskCfg); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  s.now().Add(cfg.Interval),
		}
	} else {
		// Recalculate next run from now when the interval changed
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = s.now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

func (s *Scheduler) loadTask(ctx context.Context, id string) (*domain.ScheduledTask, error) {
	if s.store != nil {
		task, err := s.store.GetTask(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load task %q: %w", id, err)
		}
		if task != nil {
			return task, nil
		}
	}
	cfg := s.config.GetTaskConfig(id)
	name, _ := domain.TaskName(id)
	return &domain.ScheduledTask{ID: id, Name: name, Interval: cfg.Interval, Enabled: cfg.Enabled}, nil
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	// Check for due tasks immediately on startup
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	if s.store == nil {
		return
	}
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: failed to list tasks: %v", err)
		return
	}

	now := s.now()
	for i := range tasks {
		if tasks[i].Due(now) {
			s.runTask(ctx, &tasks[i])
		}
	}
}

// runTask executes a single task in the background, skipping it while a
// previous run is still going.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	if !s.claim(task.ID) {
		logger.Debug("scheduler: %s still running, skipped", task.ID)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(task.ID)
		s.execute(ctx, task)
	}()
}

func (s *Scheduler) claim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[id] {
		return false
	}
	s.active[id] = true
	return true
}

func (s *Scheduler) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
}

// execute runs the task body and records the outcome.
func (s *Scheduler) execute(ctx context.Context, task *domain.ScheduledTask) domain.TaskResult {
	result := domain.TaskResult{
		TaskID:    task.ID,
		StartedAt: s.now(),
	}

	var err error
	switch task.ID {
	case domain.TaskIDUsageScan:
		result.ItemsProcessed, err = s.runUsageScan(ctx)
	case domain.TaskIDContentIndex:
		result.ItemsProcessed, err = s.runContentIndex(ctx)
	default:
		err = fmt.Errorf("unknown task ID: %s", task.ID)
	}

	result.EndedAt = s.now()
	if err != nil {
		result.Success = false
		result.Error = err.Error()
		task.LastError = err.Error()
	} else {
		result.Success = true
		task.LastError = ""
		task.LastSuccess = result.EndedAt
	}

	task.LastRun = result.StartedAt
	task.NextRun = result.EndedAt.Add(task.Interval)

	if s.store == nil {
		return result
	}
	if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
		logger.Warn("scheduler: failed to save task %s: %v", task.ID, saveErr)
	}
	if recordErr := s.store.RecordResult(ctx, &result); recordErr != nil {
		logger.Warn("scheduler: failed to record result for %s: %v", task.ID, recordErr)
	}
	if pruneErr := s.store.PruneHistory(ctx, historyRetention); pruneErr != nil {
		logger.Warn("scheduler: failed to prune history: %v", pruneErr)
	}
	return result
}

// runUsageScan scans every asset once, batch by batch.
func (s *Scheduler) runUsageScan(ctx context.Context) (int, error) {
	if s.usage == nil {
		return 0, nil
	}

	var cursor domain.BatchCursor
	cursor.BatchSize = domain.DefaultBatchSize
	scanned := 0
	for {
		if err := ctx.Err(); err != nil {
			return scanned, err
		}
		ids, err := s.usage.GetBatch(ctx, cursor.BatchSize, cursor.Offset, false, cursor.ProcessedIDs)
		if err != nil {
			return scanned, err
		}
		if len(ids) == 0 {
			return scanned, nil
		}
		run := s.usage.RunBatch(ctx, ids)
		scanned += run.Stats.Scanned - run.Stats.Failed
		cursor.Advance(ids)
		cursor.BatchSize = run.SuggestedBatchSize
	}
}

// runContentIndex fetches and indexes every published document.
func (s *Scheduler) runContentIndex(ctx context.Context) (int, error) {
	if s.content == nil {
		return 0, nil
	}

	indexed, offset := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		page, err := s.content.GetAllContentURLs(ctx, offset, domain.DefaultBatchSize)
		if err != nil {
			return indexed, err
		}
		for _, r := range s.content.IndexBatch(ctx, page.Items) {
			if r.Error == "" {
				indexed++
			} else {
				logger.Debug("scheduler: index %s: %s", r.URL, r.Error)
			}
		}
		if page.Complete || page.NextOffset <= offset {
			return indexed, nil
		}
		offset = page.NextOffset
	}
}
