package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/domain"
	"github.com/phrazzld/loopmind-api/internal/generation"
	"github.com/phrazzld/loopmind-api/internal/platform/logger"
	"github.com/phrazzld/loopmind-api/internal/store"
)

// Generator runs the card generation pipeline for one job.
type Generator interface {
	Run(ctx context.Context, in generation.Input) (*generation.Result, error)
}

// ImageDispatcher hands finalized image jobs to the renderer.
type ImageDispatcher interface {
	Dispatch(ctx context.Context, jobs []domain.ImageJob) error
}

// GenerateTopicRequest is the input of TopicService.GenerateTopic.
type GenerateTopicRequest struct {
	Text  string
	Title string
}

// GeneratedTopic is a freshly generated topic with its cards.
type GeneratedTopic struct {
	Topic   *domain.Topic      `json:"topic"`
	Cards   []*domain.Card     `json:"cards"`
	Summary domain.CardSummary `json:"summary"`
}

// CardView is a stored card as seen by its owner.
type CardView struct {
	*domain.Card
	IsLearnt bool `json:"is_learnt"`
}

// TopicDetail is a topic with its cards in order.
type TopicDetail struct {
	Topic *domain.Topic `json:"topic"`
	Cards []CardView    `json:"cards"`
}

// TopicService provides topic-related operations
type TopicService interface {
	// GenerateTopic runs the pipeline over req and persists the resulting
	// cards. Nothing but the topic's error status is written when generation
	// fails.
	GenerateTopic(ctx context.Context, ownerID uuid.UUID, req GenerateTopicRequest) (*GeneratedTopic, error)

	// GetTopic returns one of the owner's topics with its cards.
	GetTopic(ctx context.Context, ownerID, topicID uuid.UUID) (*TopicDetail, error)

	// ListTopics returns the owner's topics, newest first.
	ListTopics(ctx context.Context, ownerID uuid.UUID) ([]*domain.Topic, error)

	// MarkLearnt records that the owner learnt a card. It reports whether the
	// card was newly marked.
	MarkLearnt(ctx context.Context, ownerID, topicID, cardID uuid.UUID) (bool, error)
}

// topicServiceImpl implements the TopicService interface
type topicServiceImpl struct {
	stores     store.Stores
	tx         store.Transactor
	generator  Generator
	dispatcher ImageDispatcher
	logger     *slog.Logger
}

var _ TopicService = (*topicServiceImpl)(nil)

// NewTopicService creates a new TopicService.
// stores serve reads and single-row updates; tx runs the card commit.
// dispatcher may be nil, in which case no images are rendered.
func NewTopicService(
	stores store.Stores,
	tx store.Transactor,
	generator Generator,
	dispatcher ImageDispatcher,
	logger *slog.Logger,
) (TopicService, error) {
	switch {
	case stores.Topics == nil || stores.Cards == nil || stores.Learning == nil:
		return nil, &TopicServiceError{Operation: "create_service", Message: "stores cannot be nil"}
	case tx == nil:
		return nil, &TopicServiceError{Operation: "create_service", Message: "transactor cannot be nil"}
	case generator == nil:
		return nil, &TopicServiceError{Operation: "create_service", Message: "generator cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &topicServiceImpl{
		stores:     stores,
		tx:         tx,
		generator:  generator,
		dispatcher: dispatcher,
		logger:     logger.With(slog.String("component", "topic_service")),
	}, nil
}

// GenerateTopic implements TopicService.
func (s *topicServiceImpl) GenerateTopic(
	ctx context.Context,
	ownerID uuid.UUID,
	req GenerateTopicRequest,
) (*GeneratedTopic, error) {
	const op = "generate_topic"
	log := logger.FromContextOrDefault(ctx, s.logger)

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, domain.ErrEmptyContent
	}

	title := domain.DeriveTitle(req.Title, text)
	topic, err := domain.NewTopic(ownerID, title, domain.PickIcon(title+"\n"+text))
	if err != nil {
		return nil, NewTopicServiceError(op, "invalid topic", err)
	}
	if err := s.stores.Topics.Create(ctx, topic); err != nil {
		log.Error("failed to create topic", slog.String("error", err.Error()))
		return nil, NewTopicServiceError(op, "failed to create topic", err)
	}
	log = log.With(slog.String("topic_id", topic.ID.String()))

	result, err := s.generator.Run(ctx, generation.Input{Title: title, Text: text})
	if err != nil {
		log.Error("generation failed", slog.String("error", err.Error()))
		s.markFailed(ctx, topic)
		return nil, NewTopicServiceError(op, "generation failed", err)
	}

	now := time.Now().UTC()
	cards := result.Cards
	for i, c := range cards {
		c.ID = uuid.New()
		c.OwnerID = ownerID
		c.TopicID = topic.ID
		c.Order = i + 1
		c.ImageKey = ""
		c.CreatedAt = now
	}
	summary := domain.Summarize(cards)

	status := domain.TopicStatusReady
	if summary.ImagesPending > 0 {
		status = domain.TopicStatusImagesPending
	}

	err = s.tx.InTx(ctx, func(ctx context.Context, st store.Stores) error {
		if err := st.Cards.CreateMultiple(ctx, cards); err != nil {
			return err
		}
		return st.Topics.Finalize(ctx, topic.ID, status, len(cards))
	})
	if err != nil {
		log.Error("failed to store cards", slog.String("error", err.Error()))
		s.markFailed(ctx, topic)
		return nil, NewTopicServiceError(op, "failed to store cards", err)
	}
	topic.Status = status
	topic.CardCount = len(cards)
	topic.UpdatedAt = now

	if jobs := domain.ImageJobs(cards); len(jobs) > 0 && s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(ctx, jobs); err != nil {
			log.Warn("failed to dispatch image jobs",
				slog.Int("job_count", len(jobs)),
				slog.String("error", err.Error()))
		}
	}

	log.Info("topic generated",
		slog.Int("card_count", len(cards)),
		slog.Int("images_pending", summary.ImagesPending),
		slog.String("status", string(status)))

	return &GeneratedTopic{Topic: topic, Cards: cards, Summary: summary}, nil
}

// markFailed records the error status, even when ctx is already cancelled.
func (s *topicServiceImpl) markFailed(ctx context.Context, topic *domain.Topic) {
	ctx = context.WithoutCancel(ctx)
	if err := s.stores.Topics.UpdateStatus(ctx, topic.ID, domain.TopicStatusError); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to mark topic as failed",
			slog.String("topic_id", topic.ID.String()),
			slog.String("error", err.Error()))
	}
}

func (s *topicServiceImpl) ownedTopic(ctx context.Context, ownerID, topicID uuid.UUID) (*domain.Topic, error) {
	topic, err := s.stores.Topics.GetByID(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if topic.OwnerID != ownerID {
		return nil, ErrNotOwned
	}
	return topic, nil
}

// GetTopic implements TopicService.
func (s *topicServiceImpl) GetTopic(ctx context.Context, ownerID, topicID uuid.UUID) (*TopicDetail, error) {
	const op = "get_topic"

	topic, err := s.ownedTopic(ctx, ownerID, topicID)
	if err != nil {
		return nil, NewTopicServiceError(op, "failed to load topic", err)
	}

	cards, err := s.stores.Cards.ListByTopic(ctx, topicID)
	if err != nil {
		return nil, NewTopicServiceError(op, "failed to load cards", err)
	}

	learnt, err := s.stores.Learning.LearntCardIDs(ctx, ownerID, topicID)
	if err != nil {
		return nil, NewTopicServiceError(op, "failed to load learning records", err)
	}

	views := make([]CardView, len(cards))
	for i, c := range cards {
		views[i] = CardView{Card: c, IsLearnt: learnt[c.ID]}
	}
	return &TopicDetail{Topic: topic, Cards: views}, nil
}

// ListTopics implements TopicService.
func (s *topicServiceImpl) ListTopics(ctx context.Context, ownerID uuid.UUID) ([]*domain.Topic, error) {
	topics, err := s.stores.Topics.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, NewTopicServiceError("list_topics", "failed to list topics", err)
	}
	return topics, nil
}

// MarkLearnt implements TopicService.
func (s *topicServiceImpl) MarkLearnt(ctx context.Context, ownerID, topicID, cardID uuid.UUID) (bool, error) {
	const op = "mark_learnt"

	if _, err := s.ownedTopic(ctx, ownerID, topicID); err != nil {
		return false, NewTopicServiceError(op, "failed to load topic", err)
	}

	card, err := s.stores.Cards.GetByID(ctx, cardID)
	if err != nil {
		return false, NewTopicServiceError(op, "failed to load card", err)
	}
	if card.TopicID != topicID {
		return false, ErrCardNotFound
	}

	rec, err := domain.NewLearningRecord(ownerID, topicID, cardID)
	if err != nil {
		return false, NewTopicServiceError(op, "invalid learning record", err)
	}

	var created bool
	err = s.tx.InTx(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		created, err = st.Learning.Record(ctx, rec)
		if err != nil || !created {
			return err
		}
		return st.Topics.IncrementLearnt(ctx, topicID)
	})
	if err != nil {
		return false, NewTopicServiceError(op, "failed to record learnt card", err)
	}
	return created, nil
}
