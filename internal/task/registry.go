package task

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/events"
)

// ErrUnknownTaskType is returned when no factory is registered for a type.
var ErrUnknownTaskType = errors.New("unknown task type")

// Factory builds executable tasks of one type.
type Factory interface {
	// FromEvent creates a new task for a dispatch event.
	FromEvent(event *events.TaskRequestEvent) (Task, error)

	// Restore rebuilds a task from its persisted payload, keeping its ID.
	Restore(id uuid.UUID, payload []byte) (Task, error)
}

// Registry maps task types to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register installs f for taskType, replacing any previous factory.
func (r *Registry) Register(taskType string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[taskType] = f
}

// Handles reports whether a factory is registered for taskType.
func (r *Registry) Handles(taskType string) bool {
	_, ok := r.factory(taskType)
	return ok
}

func (r *Registry) factory(taskType string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[taskType]
	return f, ok
}

// FromEvent creates a task for event using the factory of event.Type.
func (r *Registry) FromEvent(event *events.TaskRequestEvent) (Task, error) {
	if event == nil {
		return nil, events.ErrNilEvent
	}
	f, ok := r.factory(event.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, event.Type)
	}
	return f.FromEvent(event)
}

// Restore rebuilds stored into an executable task.
func (r *Registry) Restore(stored Task) (Task, error) {
	f, ok := r.factory(stored.Type())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, stored.Type())
	}
	t, err := f.Restore(stored.ID(), stored.Payload())
	if err != nil {
		return nil, fmt.Errorf("failed to restore %s task %s: %w", stored.Type(), stored.ID(), err)
	}
	return t, nil
}
