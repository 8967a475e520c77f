package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrRunnerStopped is returned by Submit after Stop.
var ErrRunnerStopped = errors.New("task runner is stopped")

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// StuckTaskAge defines how long a task can be in processing state
	// before it's considered stuck and reset
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks
	// If zero, defaults to 5 minutes
	StuckTaskCheckInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// TaskRunner persists, queues and executes tasks. Tasks are saved before they
// are queued; a task that cannot be queued stays pending in the store and is
// picked up by the next Recover.
type TaskRunner struct {
	store      TaskStore
	registry   *Registry
	queue      *TaskQueue
	pool       *WorkerPool
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)

	mu      sync.Mutex
	stopped bool
}

// NewTaskRunner creates a new TaskRunner. registry rebuilds stored tasks
// during recovery.
func NewTaskRunner(store TaskStore, registry *Registry, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "task_runner")

	ctx, cancel := context.WithCancel(context.Background())
	queue := NewTaskQueue(config.QueueSize, logger)

	r := &TaskRunner{
		store:      store,
		registry:   registry,
		queue:      queue,
		pool:       NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger,
	}
	r.errHandler = func(task Task, err error) {
		logger.Error("task execution failed",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"error", err)
	}
	r.pool.SetProcessFunc(r.processTask)
	r.pool.SetErrorHandler(func(task Task, err error) { r.errHandler(task, err) })
	return r
}

// SetErrorHandler allows setting a custom error handler function.
// It must be called before Start.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Submit persists task and queues it for execution.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	r.mu.Lock()
	stopped := r.stopped
	r.mu.Unlock()
	if stopped {
		return ErrRunnerStopped
	}

	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	if err := r.queue.Enqueue(task); err != nil {
		r.logger.Warn("task saved but not queued; it will be recovered",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"error", err)
		return err
	}
	return nil
}

// Start recovers unfinished tasks, then starts the workers and the stuck
// task monitor.
func (r *TaskRunner) Start() error {
	if err := r.Recover(r.ctx); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	r.pool.Start()

	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop cancels running tasks and waits for all goroutines to exit.
func (r *TaskRunner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	r.cancelFunc()
	r.pool.Stop()
	r.wg.Wait()
	r.queue.Close()
}

// Recover loads pending and processing tasks from the store, rebuilds
// them through the registry, and queues them. Processing tasks are reset to
// pending first. Tasks with no usable factory are marked failed.
func (r *TaskRunner) Recover(ctx context.Context) error {
	pendingTasks, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	processingTasks, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pendingTasks),
		"processing_count", len(processingTasks))

	for _, stored := range pendingTasks {
		r.requeue(ctx, stored, false, "")
	}
	for _, stored := range processingTasks {
		r.requeue(ctx, stored, true, "reset after recovery")
	}

	return nil
}

// requeue rebuilds stored and queues it, resetting its status when reset is set.
func (r *TaskRunner) requeue(ctx context.Context, stored Task, reset bool, reason string) {
	log := r.logger.With("task_id", stored.ID(), "task_type", stored.Type())

	task, err := r.registry.Restore(stored)
	if err != nil {
		log.Error("failed to restore task", "error", err)
		if updateErr := r.store.UpdateTaskStatus(ctx, stored.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			log.Error("failed to mark unrecoverable task as failed", "error", updateErr)
		}
		return
	}

	if reset {
		if err := r.store.UpdateTaskStatus(ctx, stored.ID(), TaskStatusPending, reason); err != nil {
			log.Error("failed to reset task status", "error", err)
			return
		}
	}

	if err := r.queue.Enqueue(task); err != nil {
		log.Error("failed to requeue task", "error", err)
		return
	}
	log.Debug("requeued task")
}

// processTask marks the task processing, executes it, and records the outcome.
func (r *TaskRunner) processTask(ctx context.Context, task Task) error {
	log := r.logger.With("task_id", task.ID(), "task_type", task.Type())

	if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusProcessing, ""); err != nil {
		log.Error("failed to update task status to processing", "error", err)
		return err
	}

	log.Info("processing task")
	err := executeSafely(ctx, task)

	// The runner's own context may already be cancelled; outcomes are still recorded.
	recordCtx := context.WithoutCancel(ctx)
	if err != nil {
		if updateErr := r.store.UpdateTaskStatus(recordCtx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			log.Error("failed to update task status to failed", "error", updateErr)
		}
		return err
	}

	log.Info("task completed successfully")
	if updateErr := r.store.UpdateTaskStatus(recordCtx, task.ID(), TaskStatusCompleted, ""); updateErr != nil {
		log.Error("failed to update task status to completed", "error", updateErr)
	}
	return nil
}

func executeSafely(ctx context.Context, task Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()
	return task.Execute(ctx)
}

// stuckTaskMonitor periodically resets tasks that have been processing for
// longer than StuckTaskAge.
func (r *TaskRunner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			stuckTasks, err := r.store.GetProcessingTasks(r.ctx, r.config.StuckTaskAge)
			if err != nil {
				if r.ctx.Err() == nil {
					r.logger.Error("failed to check for stuck tasks", "error", err)
				}
				continue
			}

			if len(stuckTasks) > 0 {
				r.logger.Info("found stuck tasks", "count", len(stuckTasks))
			}
			for _, stored := range stuckTasks {
				r.requeue(r.ctx, stored, true, "reset after being stuck in processing state")
			}
		}
	}
}
