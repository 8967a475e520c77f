package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/loopmind-api/internal/domain"
	"github.com/phrazzld/loopmind-api/internal/events"
	"github.com/phrazzld/loopmind-api/internal/platform/logger"
	"github.com/phrazzld/loopmind-api/internal/task"
)

// EventImageDispatcher emits one image_render event per job.
type EventImageDispatcher struct {
	emitter events.EventEmitter
	logger  *slog.Logger
}

var _ ImageDispatcher = (*EventImageDispatcher)(nil)

// NewEventImageDispatcher creates a dispatcher publishing on emitter.
func NewEventImageDispatcher(emitter events.EventEmitter, logger *slog.Logger) (*EventImageDispatcher, error) {
	if emitter == nil {
		return nil, errors.New("event emitter cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EventImageDispatcher{
		emitter: emitter,
		logger:  logger.With(slog.String("component", "image_dispatcher")),
	}, nil
}

// Dispatch emits every job. A failed job does not stop the others; all
// failures are returned joined.
func (d *EventImageDispatcher) Dispatch(ctx context.Context, jobs []domain.ImageJob) error {
	log := logger.FromContextOrDefault(ctx, d.logger)

	var errs []error
	for _, job := range jobs {
		event, err := events.NewTaskRequestEvent(task.TaskTypeImageRender, job)
		if err == nil {
			err = d.emitter.EmitEvent(ctx, event)
		}
		if err != nil {
			log.Error("failed to dispatch image job",
				slog.String("card_id", job.CardID.String()),
				slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("card %s: %w", job.CardID, err))
			continue
		}
		log.Debug("image job dispatched", slog.String("card_id", job.CardID.String()))
	}
	return errors.Join(errs...)
}
