package task

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubmitter struct {
	mu    sync.Mutex
	tasks []Task
	err   error
}

func (s *recordingSubmitter) Submit(_ context.Context, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
	return s.err
}

func TestTaskFactoryEventHandler_HandleEvent(t *testing.T) {
	t.Parallel()

	newEvent := func(t *testing.T, eventType string) *events.TaskRequestEvent {
		e, err := events.NewTaskRequestEvent(eventType, map[string]string{"card_id": uuid.NewString()})
		require.NoError(t, err)
		return e
	}

	t.Run("submits the created task", func(t *testing.T) {
		t.Parallel()
		reg, _ := restoringRegistry(nil)
		sub := &recordingSubmitter{}
		h := NewTaskFactoryEventHandler(reg, sub, testLogger())

		event := newEvent(t, mockType)
		require.NoError(t, h.HandleEvent(context.Background(), event))
		require.Len(t, sub.tasks, 1)
		assert.Equal(t, []byte(event.Payload), sub.tasks[0].Payload())
	})

	t.Run("ignores unsupported types", func(t *testing.T) {
		t.Parallel()
		reg, _ := restoringRegistry(nil)
		sub := &recordingSubmitter{}
		h := NewTaskFactoryEventHandler(reg, sub, testLogger())

		require.NoError(t, h.HandleEvent(context.Background(), newEvent(t, "something_else")))
		assert.Empty(t, sub.tasks)
	})

	t.Run("factory error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("bad payload")
		reg := NewRegistry()
		reg.Register(mockType, &MockFactory{
			FromEventFn: func(*events.TaskRequestEvent) (Task, error) { return nil, boom },
		})
		sub := &recordingSubmitter{}
		h := NewTaskFactoryEventHandler(reg, sub, testLogger())

		err := h.HandleEvent(context.Background(), newEvent(t, mockType))
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, sub.tasks)
	})

	t.Run("submit error", func(t *testing.T) {
		t.Parallel()
		reg, _ := restoringRegistry(nil)
		sub := &recordingSubmitter{err: ErrQueueFull}
		h := NewTaskFactoryEventHandler(reg, sub, testLogger())

		err := h.HandleEvent(context.Background(), newEvent(t, mockType))
		assert.ErrorIs(t, err, ErrQueueFull)
	})

	t.Run("nil event", func(t *testing.T) {
		t.Parallel()
		reg, _ := restoringRegistry(nil)
		h := NewTaskFactoryEventHandler(reg, &recordingSubmitter{}, testLogger())
		assert.ErrorIs(t, h.HandleEvent(context.Background(), nil), events.ErrNilEvent)
	})
}
