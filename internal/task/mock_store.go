package task

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockTaskStore is an in-memory TaskStore. Like the database store it hands
// back *Record values, so recovery goes through the Registry.
type MockTaskStore struct {
	mutex   sync.RWMutex
	records map[uuid.UUID]*Record
	history map[uuid.UUID][]TaskStatus

	SaveFn         func(ctx context.Context, task Task) error
	UpdateStatusFn func(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error
}

// NewMockTaskStore creates a new MockTaskStore with default implementations
func NewMockTaskStore() *MockTaskStore {
	s := &MockTaskStore{
		records: make(map[uuid.UUID]*Record),
		history: make(map[uuid.UUID][]TaskStatus),
	}
	s.SaveFn = s.save
	s.UpdateStatusFn = s.updateStatus
	return s
}

func (s *MockTaskStore) save(_ context.Context, task Task) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now().UTC()
	s.records[task.ID()] = &Record{
		TaskID:    task.ID(),
		TaskType:  task.Type(),
		Data:      task.Payload(),
		State:     task.Status(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.history[task.ID()] = append(s.history[task.ID()], task.Status())
	return nil
}

func (s *MockTaskStore) updateStatus(_ context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rec, ok := s.records[taskID]
	if !ok {
		return nil
	}
	rec.State = status
	rec.ErrorMessage = errorMsg
	rec.UpdatedAt = time.Now().UTC()
	s.history[taskID] = append(s.history[taskID], status)
	return nil
}

// Put stores rec directly, bypassing SaveFn. Tests use it to seed state
// left behind by a previous process.
func (s *MockTaskStore) Put(rec *Record) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	copied := *rec
	s.records[rec.TaskID] = &copied
}

// Get returns a copy of the stored record for id.
func (s *MockTaskStore) Get(id uuid.UUID) (Record, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// History returns every status a task has been saved or updated with.
func (s *MockTaskStore) History(id uuid.UUID) []TaskStatus {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]TaskStatus(nil), s.history[id]...)
}

// SaveTask persists a task to the mock store
func (s *MockTaskStore) SaveTask(ctx context.Context, task Task) error {
	return s.SaveFn(ctx, task)
}

// UpdateTaskStatus updates the status of a task in the mock store
func (s *MockTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status TaskStatus,
	errorMsg string,
) error {
	return s.UpdateStatusFn(ctx, taskID, status, errorMsg)
}

// GetPendingTasks retrieves all tasks with "pending" status
func (s *MockTaskStore) GetPendingTasks(_ context.Context) ([]Task, error) {
	return s.byStatus(TaskStatusPending, 0), nil
}

// GetProcessingTasks retrieves tasks with "processing" status
func (s *MockTaskStore) GetProcessingTasks(_ context.Context, olderThan time.Duration) ([]Task, error) {
	return s.byStatus(TaskStatusProcessing, olderThan), nil
}

func (s *MockTaskStore) byStatus(status TaskStatus, olderThan time.Duration) []Task {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	var out []Task
	for _, rec := range s.records {
		if rec.State != status {
			continue
		}
		if olderThan > 0 && !rec.UpdatedAt.Before(cutoff) {
			continue
		}
		copied := *rec
		out = append(out, &copied)
	}
	return out
}

// WithTx implements TaskStore.WithTx for the mock store
// In the mock implementation, we just return the same store instance
func (s *MockTaskStore) WithTx(*sql.Tx) TaskStore {
	return s
}
