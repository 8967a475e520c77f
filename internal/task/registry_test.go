package task

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg, _ := restoringRegistry(func(context.Context) error { return nil })

	assert.True(t, reg.Handles(mockType))
	assert.False(t, reg.Handles("other"))

	event, err := events.NewTaskRequestEvent(mockType, map[string]int{"n": 1})
	require.NoError(t, err)
	task, err := reg.FromEvent(event)
	require.NoError(t, err)
	assert.Equal(t, mockType, task.Type())

	stored := &Record{TaskID: uuid.New(), TaskType: mockType, Data: []byte(`{}`)}
	restored, err := reg.Restore(stored)
	require.NoError(t, err)
	assert.Equal(t, stored.TaskID, restored.ID())

	_, err = reg.Restore(&Record{TaskID: uuid.New(), TaskType: "other"})
	assert.ErrorIs(t, err, ErrUnknownTaskType)

	other, err := events.NewTaskRequestEvent("other", nil)
	require.NoError(t, err)
	_, err = reg.FromEvent(other)
	assert.ErrorIs(t, err, ErrUnknownTaskType)

	_, err = reg.FromEvent(nil)
	assert.ErrorIs(t, err, events.ErrNilEvent)
}

func TestRegistry_RestoreError(t *testing.T) {
	t.Parallel()

	boom := errors.New("bad payload")
	reg := NewRegistry()
	reg.Register(mockType, &MockFactory{
		RestoreFn: func(uuid.UUID, []byte) (Task, error) { return nil, boom },
	})

	_, err := reg.Restore(&Record{TaskID: uuid.New(), TaskType: mockType})
	assert.ErrorIs(t, err, boom)
}

func TestRecord_ExecuteNotRestored(t *testing.T) {
	t.Parallel()

	rec := &Record{TaskID: uuid.New(), TaskType: mockType, State: TaskStatusPending}
	assert.ErrorIs(t, rec.Execute(context.Background()), ErrNotRestored)
	assert.Equal(t, TaskStatusPending, rec.Status())
}
