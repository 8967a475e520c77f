package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/domain"
	"github.com/phrazzld/loopmind-api/internal/generation"
	"github.com/phrazzld/loopmind-api/internal/mocks"
	"github.com/phrazzld/loopmind-api/internal/service"
	"github.com/phrazzld/loopmind-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generatorFunc func(ctx context.Context, in generation.Input) (*generation.Result, error)

func (f generatorFunc) Run(ctx context.Context, in generation.Input) (*generation.Result, error) {
	return f(ctx, in)
}

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []domain.ImageJob
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, jobs []domain.ImageJob) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, jobs...)
	return d.err
}

func sampleCards() []*domain.Card {
	return []*domain.Card{
		{
			Title:       "Growth",
			Hook:        "Money grows on itself",
			PostType:    domain.PostTypeImage,
			ImagePrompt: domain.ParseImagePrompt("Subject: coins"),
		},
		{
			Title:    "Check",
			PostType: domain.PostTypeQuiz,
			Quiz:     &domain.Quiz{Question: "Which grows?", Choices: []string{"a", "b", "c", "d"}},
		},
		{
			Title:     "Define",
			PostType:  domain.PostTypeFlashcard,
			Flashcard: &domain.Flashcard{Question: "Compounding?", Answer: "Interest on interest"},
		},
	}
}

func fixedGenerator(cards func() []*domain.Card) generatorFunc {
	return func(_ context.Context, _ generation.Input) (*generation.Result, error) {
		c := cards()
		return &generation.Result{Cards: c, Summary: domain.Summarize(c)}, nil
	}
}

type fixture struct {
	db         *mocks.MemoryDB
	tx         *mocks.MemoryTransactor
	dispatcher *recordingDispatcher
	svc        service.TopicService
}

func newFixture(t *testing.T, gen service.Generator) *fixture {
	t.Helper()
	db := mocks.NewMemoryDB()
	tx := &mocks.MemoryTransactor{DB: db}
	d := &recordingDispatcher{}
	svc, err := service.NewTopicService(db.Stores(), tx, gen, d, nil)
	require.NoError(t, err)
	return &fixture{db: db, tx: tx, dispatcher: d, svc: svc}
}

func TestNewTopicService_Validation(t *testing.T) {
	t.Parallel()

	db := mocks.NewMemoryDB()
	tx := &mocks.MemoryTransactor{DB: db}
	gen := fixedGenerator(sampleCards)

	_, err := service.NewTopicService(store.Stores{}, tx, gen, nil, nil)
	assert.ErrorContains(t, err, "stores cannot be nil")

	_, err = service.NewTopicService(db.Stores(), nil, gen, nil, nil)
	assert.ErrorContains(t, err, "transactor cannot be nil")

	_, err = service.NewTopicService(db.Stores(), tx, nil, nil, nil)
	assert.ErrorContains(t, err, "generator cannot be nil")

	_, err = service.NewTopicService(db.Stores(), tx, gen, nil, nil)
	assert.NoError(t, err)
}

func TestGenerateTopic(t *testing.T) {
	t.Parallel()

	var got generation.Input
	gen := generatorFunc(func(ctx context.Context, in generation.Input) (*generation.Result, error) {
		got = in
		return fixedGenerator(sampleCards)(ctx, in)
	})
	f := newFixture(t, gen)
	owner := uuid.New()

	res, err := f.svc.GenerateTopic(context.Background(), owner, service.GenerateTopicRequest{
		Text: "  Python decorators explained\nWrap functions to add behavior.  ",
	})
	require.NoError(t, err)

	assert.Equal(t, "Python decorators explained", got.Title)
	assert.Equal(t, "Python decorators explained\nWrap functions to add behavior.", got.Text)

	assert.Equal(t, "Python decorators explained", res.Topic.Title)
	assert.Equal(t, "💻", res.Topic.Icon)
	assert.Equal(t, domain.TopicStatusImagesPending, res.Topic.Status)
	assert.Equal(t, 3, res.Topic.CardCount)
	assert.Equal(t, domain.CardSummary{Image: 1, Quiz: 1, Flashcard: 1, Total: 3, ImagesPending: 1}, res.Summary)

	for i, c := range res.Cards {
		assert.Equal(t, i+1, c.Order)
		assert.Equal(t, owner, c.OwnerID)
		assert.Equal(t, res.Topic.ID, c.TopicID)
		assert.NotEqual(t, uuid.Nil, c.ID)
		assert.Empty(t, c.ImageKey)
	}

	stored, ok := f.db.Topic(res.Topic.ID)
	require.True(t, ok)
	assert.Equal(t, domain.TopicStatusImagesPending, stored.Status)
	assert.Equal(t, 3, stored.CardCount)
	assert.Equal(t, 3, f.db.CardCount())
	assert.Equal(t, 1, f.tx.Calls())

	require.Len(t, f.dispatcher.jobs, 1)
	assert.Equal(t, domain.ImageJob{OwnerID: owner, TopicID: res.Topic.ID, CardID: res.Cards[0].ID}, f.dispatcher.jobs[0])
}

func TestGenerateTopic_ExplicitTitle(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixedGenerator(sampleCards))
	res, err := f.svc.GenerateTopic(context.Background(), uuid.New(), service.GenerateTopicRequest{
		Text:  "some notes",
		Title: "  My Title ",
	})
	require.NoError(t, err)
	assert.Equal(t, "My Title", res.Topic.Title)
}

func TestGenerateTopic_NoImagesIsReady(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixedGenerator(func() []*domain.Card { return sampleCards()[1:] }))
	res, err := f.svc.GenerateTopic(context.Background(), uuid.New(), service.GenerateTopicRequest{Text: "notes"})
	require.NoError(t, err)

	assert.Equal(t, domain.TopicStatusReady, res.Topic.Status)
	assert.Empty(t, f.dispatcher.jobs)
}

func TestGenerateTopic_EmptyText(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixedGenerator(sampleCards))
	_, err := f.svc.GenerateTopic(context.Background(), uuid.New(), service.GenerateTopicRequest{Text: " \n "})
	assert.ErrorIs(t, err, domain.ErrEmptyContent)
	assert.Zero(t, f.tx.Calls())
}

func TestGenerateTopic_GenerationFailure(t *testing.T) {
	t.Parallel()

	failure := generatorFunc(func(context.Context, generation.Input) (*generation.Result, error) {
		return nil, &generation.CountError{Stage: "cards", Expected: 8, Actual: 5}
	})
	f := newFixture(t, failure)
	owner := uuid.New()

	_, err := f.svc.GenerateTopic(context.Background(), owner, service.GenerateTopicRequest{Text: "notes"})
	require.Error(t, err)
	assert.ErrorIs(t, err, generation.ErrValidation)

	var svcErr *service.TopicServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "generate_topic", svcErr.Operation)

	topics, err := f.db.Stores().Topics.ListByOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, domain.TopicStatusError, topics[0].Status)
	assert.Zero(t, f.db.CardCount())
	assert.Zero(t, f.tx.Calls())
	assert.Empty(t, f.dispatcher.jobs)
}

func TestGenerateTopic_CommitFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixedGenerator(sampleCards))
	f.db.FailCreateCards = errors.New("disk full")
	owner := uuid.New()

	_, err := f.svc.GenerateTopic(context.Background(), owner, service.GenerateTopicRequest{Text: "notes"})
	require.ErrorContains(t, err, "disk full")

	topics, err := f.db.Stores().Topics.ListByOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, domain.TopicStatusError, topics[0].Status)
	assert.Zero(t, topics[0].CardCount)
	assert.Empty(t, f.dispatcher.jobs)
}

func TestGenerateTopic_DispatchFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixedGenerator(sampleCards))
	f.dispatcher.err = errors.New("queue full")

	res, err := f.svc.GenerateTopic(context.Background(), uuid.New(), service.GenerateTopicRequest{Text: "notes"})
	require.NoError(t, err)
	assert.Equal(t, domain.TopicStatusImagesPending, res.Topic.Status)
}

func TestGetTopicAndMarkLearnt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, fixedGenerator(sampleCards))
	owner := uuid.New()

	res, err := f.svc.GenerateTopic(ctx, owner, service.GenerateTopicRequest{Text: "notes"})
	require.NoError(t, err)
	topicID := res.Topic.ID
	quizID := res.Cards[1].ID

	created, err := f.svc.MarkLearnt(ctx, owner, topicID, quizID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.svc.MarkLearnt(ctx, owner, topicID, quizID)
	require.NoError(t, err)
	assert.False(t, created)

	detail, err := f.svc.GetTopic(ctx, owner, topicID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.Topic.LearntCount)
	require.Len(t, detail.Cards, 3)
	assert.False(t, detail.Cards[0].IsLearnt)
	assert.True(t, detail.Cards[1].IsLearnt)
	assert.Equal(t, quizID, detail.Cards[1].ID)

	t.Run("another owner", func(t *testing.T) {
		_, err := f.svc.GetTopic(ctx, uuid.New(), topicID)
		assert.ErrorIs(t, err, service.ErrNotOwned)

		_, err = f.svc.MarkLearnt(ctx, uuid.New(), topicID, quizID)
		assert.ErrorIs(t, err, service.ErrNotOwned)
	})

	t.Run("unknown topic", func(t *testing.T) {
		_, err := f.svc.GetTopic(ctx, owner, uuid.New())
		assert.ErrorIs(t, err, service.ErrTopicNotFound)
	})

	t.Run("card of another topic", func(t *testing.T) {
		other, err := f.svc.GenerateTopic(ctx, owner, service.GenerateTopicRequest{Text: "more notes"})
		require.NoError(t, err)

		_, err = f.svc.MarkLearnt(ctx, owner, topicID, other.Cards[0].ID)
		assert.ErrorIs(t, err, service.ErrCardNotFound)

		_, err = f.svc.MarkLearnt(ctx, owner, topicID, uuid.New())
		assert.ErrorIs(t, err, service.ErrCardNotFound)
	})
}

func TestListTopics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, fixedGenerator(sampleCards))
	owner := uuid.New()

	for _, text := range []string{"first", "second"} {
		_, err := f.svc.GenerateTopic(ctx, owner, service.GenerateTopicRequest{Text: text})
		require.NoError(t, err)
	}
	_, err := f.svc.GenerateTopic(ctx, uuid.New(), service.GenerateTopicRequest{Text: "someone else"})
	require.NoError(t, err)

	topics, err := f.svc.ListTopics(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, topics, 2)

	topics, err = f.svc.ListTopics(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, topics)
}
