package task

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/events"
)

// MockTask is a simple implementation of the Task interface for testing
type MockTask struct {
	TaskID      uuid.UUID
	TaskType    string
	TaskPayload []byte
	TaskStatus  TaskStatus
	ExecuteFn   func(ctx context.Context) error

	executions atomic.Int32
}

// NewMockTask creates a new MockTask with the given ID and type
func NewMockTask(id uuid.UUID, taskType string, payload []byte) *MockTask {
	return &MockTask{
		TaskID:      id,
		TaskType:    taskType,
		TaskPayload: payload,
		TaskStatus:  TaskStatusPending,
		ExecuteFn:   func(ctx context.Context) error { return nil },
	}
}

// ID returns the task's unique identifier
func (t *MockTask) ID() uuid.UUID { return t.TaskID }

// Type returns the task type identifier
func (t *MockTask) Type() string { return t.TaskType }

// Payload returns the task data as a byte slice
func (t *MockTask) Payload() []byte { return t.TaskPayload }

// Status returns the current task status
func (t *MockTask) Status() TaskStatus { return t.TaskStatus }

// Execute runs ExecuteFn and counts the call.
func (t *MockTask) Execute(ctx context.Context) error {
	t.executions.Add(1)
	return t.ExecuteFn(ctx)
}

// Executions reports how many times Execute ran.
func (t *MockTask) Executions() int {
	return int(t.executions.Load())
}

// MockFactory is a Factory whose behavior is set per test.
type MockFactory struct {
	FromEventFn func(event *events.TaskRequestEvent) (Task, error)
	RestoreFn   func(id uuid.UUID, payload []byte) (Task, error)
}

// FromEvent implements Factory.
func (f *MockFactory) FromEvent(event *events.TaskRequestEvent) (Task, error) {
	return f.FromEventFn(event)
}

// Restore implements Factory.
func (f *MockFactory) Restore(id uuid.UUID, payload []byte) (Task, error) {
	return f.RestoreFn(id, payload)
}
