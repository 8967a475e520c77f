package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/domain"
	"github.com/phrazzld/loopmind-api/internal/events"
	"github.com/phrazzld/loopmind-api/internal/generation"
	"github.com/phrazzld/loopmind-api/internal/guardrail"
)

// Dependency errors
var (
	ErrNilCardRepository  = errors.New("card repository cannot be nil")
	ErrNilTopicRepository = errors.New("topic repository cannot be nil")
	ErrNilImageRenderer   = errors.New("image renderer cannot be nil")
	ErrNilBlobStore       = errors.New("blob store cannot be nil")
	ErrInvalidImageJob    = errors.New("image job requires owner, topic and card IDs")
)

// DefaultRateLimitDelay is how long a rate-limited render waits before its
// single retry.
const DefaultRateLimitDelay = 3 * time.Second

// CardRepository is the card storage an ImageRenderTask needs.
type CardRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	SetImageKey(ctx context.Context, id uuid.UUID, key string) error
	CountPendingImages(ctx context.Context, topicID uuid.UUID) (int, error)
}

// TopicRepository is the topic storage an ImageRenderTask needs.
type TopicRepository interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TopicStatus) error
}

// ImageRenderer synthesizes an image from a prompt.
type ImageRenderer interface {
	Render(ctx context.Context, prompt string) ([]byte, string, error)
}

// BlobStore stores rendered images and returns their locator.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ImageRenderDeps are the collaborators shared by every render task.
type ImageRenderDeps struct {
	Cards    CardRepository
	Topics   TopicRepository
	Renderer ImageRenderer
	Blobs    BlobStore
	Logger   *slog.Logger

	// RateLimitDelay overrides DefaultRateLimitDelay when positive.
	RateLimitDelay time.Duration
}

func (d ImageRenderDeps) validate() error {
	switch {
	case d.Cards == nil:
		return ErrNilCardRepository
	case d.Topics == nil:
		return ErrNilTopicRepository
	case d.Renderer == nil:
		return ErrNilImageRenderer
	case d.Blobs == nil:
		return ErrNilBlobStore
	}
	return nil
}

// ImageRenderTask renders one image card, stores the image, writes the
// locator back and marks the topic ready once every image is rendered.
// Executing it again after success is a no-op.
type ImageRenderTask struct {
	id     uuid.UUID
	job    domain.ImageJob
	deps   ImageRenderDeps
	logger *slog.Logger
	status TaskStatus
	sleep  func(ctx context.Context, d time.Duration) error
}

var _ Task = (*ImageRenderTask)(nil)

// NewImageRenderTask creates a task for job with a fresh ID.
func NewImageRenderTask(job domain.ImageJob, deps ImageRenderDeps) (*ImageRenderTask, error) {
	return newImageRenderTask(uuid.New(), job, deps)
}

func newImageRenderTask(id uuid.UUID, job domain.ImageJob, deps ImageRenderDeps) (*ImageRenderTask, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if job.OwnerID == uuid.Nil || job.TopicID == uuid.Nil || job.CardID == uuid.Nil {
		return nil, ErrInvalidImageJob
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.RateLimitDelay <= 0 {
		deps.RateLimitDelay = DefaultRateLimitDelay
	}

	return &ImageRenderTask{
		id:   id,
		job:  job,
		deps: deps,
		logger: deps.Logger.With(
			"task_type", TaskTypeImageRender,
			"topic_id", job.TopicID,
			"card_id", job.CardID),
		status: TaskStatusPending,
		sleep:  sleepContext,
	}, nil
}

// ID returns the task's unique identifier
func (t *ImageRenderTask) ID() uuid.UUID { return t.id }

// Type returns the task type identifier
func (t *ImageRenderTask) Type() string { return TaskTypeImageRender }

// Job returns the image job the task renders.
func (t *ImageRenderTask) Job() domain.ImageJob { return t.job }

// Status returns the current task status
func (t *ImageRenderTask) Status() TaskStatus { return t.status }

// Payload returns the job encoded as JSON.
func (t *ImageRenderTask) Payload() []byte {
	data, err := json.Marshal(t.job)
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}
	return data
}

// Execute renders the card's image.
func (t *ImageRenderTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing

	if err := t.execute(ctx); err != nil {
		t.status = TaskStatusFailed
		return err
	}
	t.status = TaskStatusCompleted
	return nil
}

func (t *ImageRenderTask) execute(ctx context.Context) error {
	card, err := t.deps.Cards.GetByID(ctx, t.job.CardID)
	if err != nil {
		return fmt.Errorf("failed to load card: %w", err)
	}
	if card.TopicID != t.job.TopicID || card.OwnerID != t.job.OwnerID {
		return fmt.Errorf("%w: card %s does not belong to topic %s", ErrInvalidImageJob, card.ID, t.job.TopicID)
	}

	if !card.IsImage() {
		t.logger.Info("skipping render for non-image card", "post_type", card.PostType)
		return nil
	}
	if card.Rendered() {
		t.logger.Info("card already rendered", "image_key", card.ImageKey)
		return nil
	}
	if card.ImagePrompt == nil {
		return fmt.Errorf("image card %s has no prompt", card.ID)
	}

	data, mimeType, err := t.render(ctx, guardrail.RenderPrompt(card))
	if err != nil {
		return fmt.Errorf("failed to render image: %w", err)
	}

	locator, err := t.deps.Blobs.Put(ctx, t.job.ObjectKey(), data, mimeType)
	if err != nil {
		return fmt.Errorf("failed to store image: %w", err)
	}

	if err := t.deps.Cards.SetImageKey(ctx, card.ID, locator); err != nil {
		return fmt.Errorf("failed to record image locator: %w", err)
	}
	t.logger.Info("card image rendered", "image_key", locator, "size", len(data))

	pending, err := t.deps.Cards.CountPendingImages(ctx, t.job.TopicID)
	if err != nil {
		return fmt.Errorf("failed to count pending images: %w", err)
	}
	if pending == 0 {
		if err := t.deps.Topics.UpdateStatus(ctx, t.job.TopicID, domain.TopicStatusReady); err != nil {
			return fmt.Errorf("failed to mark topic ready: %w", err)
		}
		t.logger.Info("all topic images rendered, topic ready")
	}
	return nil
}

// render calls the renderer, retrying once after a rate-limit rejection.
func (t *ImageRenderTask) render(ctx context.Context, prompt string) ([]byte, string, error) {
	data, mimeType, err := t.deps.Renderer.Render(ctx, prompt)
	if err == nil || !errors.Is(err, generation.ErrRateLimited) {
		return data, mimeType, err
	}

	t.logger.Warn("image render rate limited, retrying once",
		"delay", t.deps.RateLimitDelay.String(),
		"error", err)
	if err := t.sleep(ctx, t.deps.RateLimitDelay); err != nil {
		return nil, "", err
	}
	return t.deps.Renderer.Render(ctx, prompt)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ImageRenderTaskFactory creates ImageRenderTask instances
type ImageRenderTaskFactory struct {
	deps ImageRenderDeps
}

var _ Factory = (*ImageRenderTaskFactory)(nil)

// NewImageRenderTaskFactory creates a factory sharing deps across tasks.
func NewImageRenderTaskFactory(deps ImageRenderDeps) (*ImageRenderTaskFactory, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	deps.Logger = deps.Logger.With("component", "image_render_task_factory")
	return &ImageRenderTaskFactory{deps: deps}, nil
}

// CreateTask creates a new task for job.
func (f *ImageRenderTaskFactory) CreateTask(job domain.ImageJob) (*ImageRenderTask, error) {
	return NewImageRenderTask(job, f.deps)
}

// FromEvent implements Factory.
func (f *ImageRenderTaskFactory) FromEvent(event *events.TaskRequestEvent) (Task, error) {
	var job domain.ImageJob
	if err := event.UnmarshalPayload(&job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return f.CreateTask(job)
}

// Restore implements Factory.
func (f *ImageRenderTaskFactory) Restore(id uuid.UUID, payload []byte) (Task, error) {
	var job domain.ImageJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return newImageRenderTask(id, job, f.deps)
}
