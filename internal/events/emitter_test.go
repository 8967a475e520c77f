package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingHandler(count *atomic.Int32, err error) EventHandler {
	return EventHandlerFunc(func(context.Context, *TaskRequestEvent) error {
		count.Add(1)
		return err
	})
}

func TestInMemoryEventEmitter(t *testing.T) {
	t.Parallel()

	event, err := NewTaskRequestEvent(EventTypeImageRender, map[string]string{"card_id": "x"})
	require.NoError(t, err)

	t.Run("no handlers", func(t *testing.T) {
		t.Parallel()
		emitter := NewInMemoryEventEmitter(nil)
		assert.NoError(t, emitter.EmitEvent(context.Background(), event))
	})

	t.Run("all handlers receive the event", func(t *testing.T) {
		t.Parallel()
		var count atomic.Int32
		emitter := NewInMemoryEventEmitter(nil)
		emitter.RegisterHandler(countingHandler(&count, nil))
		emitter.RegisterHandler(countingHandler(&count, nil))

		assert.NoError(t, emitter.EmitEvent(context.Background(), event))
		assert.Equal(t, int32(2), count.Load())
	})

	t.Run("handler errors are joined and do not stop delivery", func(t *testing.T) {
		t.Parallel()
		first := errors.New("first")
		second := errors.New("second")

		var count atomic.Int32
		emitter := NewInMemoryEventEmitter(nil)
		emitter.RegisterHandler(countingHandler(&count, first))
		emitter.RegisterHandler(countingHandler(&count, nil))
		emitter.RegisterHandler(countingHandler(&count, second))

		err := emitter.EmitEvent(context.Background(), event)
		assert.ErrorIs(t, err, first)
		assert.ErrorIs(t, err, second)
		assert.Equal(t, int32(3), count.Load())
	})

	t.Run("nil event", func(t *testing.T) {
		t.Parallel()
		emitter := NewInMemoryEventEmitter(nil)
		assert.ErrorIs(t, emitter.EmitEvent(context.Background(), nil), ErrNilEvent)
	})
}
