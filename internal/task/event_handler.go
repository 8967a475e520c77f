package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/loopmind-api/internal/events"
)

// Submitter accepts tasks for execution. *TaskRunner implements it.
type Submitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler implements the events.EventHandler interface
// to turn task request events into submitted tasks.
type TaskFactoryEventHandler struct {
	registry *Registry
	runner   Submitter
	logger   *slog.Logger
}

// NewTaskFactoryEventHandler creates a new event handler that builds tasks
// through registry and submits them to runner.
func NewTaskFactoryEventHandler(registry *Registry, runner Submitter, logger *slog.Logger) *TaskFactoryEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskFactoryEventHandler{
		registry: registry,
		runner:   runner,
		logger:   logger.With("component", "task_factory_event_handler"),
	}
}

// HandleEvent builds the task for event and submits it. Events of types
// without a registered factory are ignored.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if event == nil {
		return events.ErrNilEvent
	}

	if !h.registry.Handles(event.Type) {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	task, err := h.registry.FromEvent(event)
	if err != nil {
		h.logger.Error("failed to create task",
			"error", err,
			"event_type", event.Type,
			"event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.runner.Submit(ctx, task); err != nil {
		h.logger.Error("failed to submit task",
			"error", err,
			"task_id", task.ID(),
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Info("task created and submitted successfully",
		"task_id", task.ID(),
		"task_type", task.Type(),
		"event_id", event.ID)
	return nil
}

// Ensure TaskFactoryEventHandler implements events.EventHandler
var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)
