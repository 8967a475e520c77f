//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/domain"
	"github.com/phrazzld/loopmind-api/internal/platform/postgres"
	"github.com/phrazzld/loopmind-api/internal/store"
	"github.com/phrazzld/loopmind-api/internal/task"
	"github.com/phrazzld/loopmind-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTopic(t *testing.T, ctx context.Context, tx *sql.Tx, owner uuid.UUID) *domain.Topic {
	t.Helper()
	topic, err := domain.NewTopic(owner, "Compound interest", "")
	require.NoError(t, err)
	require.NoError(t, postgres.NewPostgresTopicStore(tx, nil).Create(ctx, topic))
	return topic
}

func newCards(topic *domain.Topic) []*domain.Card {
	now := time.Now().UTC().Truncate(time.Microsecond)
	image := &domain.Card{
		ID:          uuid.New(),
		OwnerID:     topic.OwnerID,
		TopicID:     topic.ID,
		Order:       1,
		Title:       "Growth curve",
		Hook:        "Money that grows on itself",
		PostType:    domain.PostTypeImage,
		ImageStyle:  domain.ImageStyleFlatIllustration,
		ImageLabels: []string{"Year 1", "Year 30"},
		ImagePrompt: domain.ParseImagePrompt("Subject: a jar of coins\nMood: calm"),
		Takeaways:   []string{"Start early"},
		CreatedAt:   now,
	}
	flash := &domain.Card{
		ID:        uuid.New(),
		OwnerID:   topic.OwnerID,
		TopicID:   topic.ID,
		Order:     2,
		Title:     "Definition",
		PostType:  domain.PostTypeFlashcard,
		Flashcard: &domain.Flashcard{Question: "What compounds?", Answer: "Interest on interest"},
		CreatedAt: now,
	}
	return []*domain.Card{image, flash}
}

func TestTopicStore_Integration(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		topics := postgres.NewPostgresTopicStore(tx, nil)
		owner := uuid.New()

		first := newTopic(t, ctx, tx, owner)
		second := newTopic(t, ctx, tx, owner)
		newTopic(t, ctx, tx, uuid.New())

		got, err := topics.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, first.Title, got.Title)
		assert.Equal(t, domain.TopicStatusGenerating, got.Status)

		list, err := topics.ListByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, []uuid.UUID{list[0].ID, list[1].ID})

		require.NoError(t, topics.Finalize(ctx, first.ID, domain.TopicStatusImagesPending, 2))
		require.NoError(t, topics.IncrementLearnt(ctx, first.ID))
		got, err = topics.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TopicStatusImagesPending, got.Status)
		assert.Equal(t, 2, got.CardCount)
		assert.Equal(t, 1, got.LearntCount)

		_, err = topics.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrTopicNotFound)
		assert.ErrorIs(t, topics.UpdateStatus(ctx, uuid.New(), domain.TopicStatusReady), store.ErrTopicNotFound)
		assert.ErrorIs(t, topics.UpdateStatus(ctx, first.ID, "bogus"), store.ErrInvalidEntity)
		assert.ErrorIs(t, topics.Create(ctx, first), store.ErrDuplicate)
	})
}

func TestCardStore_Integration(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		cards := postgres.NewPostgresCardStore(tx, nil)
		topic := newTopic(t, ctx, tx, uuid.New())
		batch := newCards(topic)

		require.NoError(t, cards.CreateMultiple(ctx, batch))

		list, err := cards.ListByTopic(ctx, topic.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, batch[0].ID, list[0].ID)
		assert.Equal(t, batch[0].ImagePrompt.String(), list[0].ImagePrompt.String())
		assert.Equal(t, batch[0].ImageLabels, list[0].ImageLabels)
		require.NotNil(t, list[1].Flashcard)
		assert.Equal(t, *batch[1].Flashcard, *list[1].Flashcard)

		pending, err := cards.CountPendingImages(ctx, topic.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, pending)

		require.NoError(t, cards.SetImageKey(ctx, batch[0].ID, "gs://bucket/key.png"))
		got, err := cards.GetByID(ctx, batch[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "gs://bucket/key.png", got.ImageKey)

		pending, err = cards.CountPendingImages(ctx, topic.ID)
		require.NoError(t, err)
		assert.Zero(t, pending)

		_, err = cards.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrCardNotFound)
		assert.ErrorIs(t, cards.SetImageKey(ctx, uuid.New(), "x"), store.ErrCardNotFound)
	})
}

func TestCardStore_ForeignKey_Integration(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		orphan := newCards(&domain.Topic{ID: uuid.New(), OwnerID: uuid.New()})
		err := postgres.NewPostgresCardStore(tx, nil).CreateMultiple(context.Background(), orphan)
		assert.ErrorIs(t, err, store.ErrTopicNotFound)
	})
}

func TestLearningStore_Integration(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		topic := newTopic(t, ctx, tx, uuid.New())
		batch := newCards(topic)
		require.NoError(t, postgres.NewPostgresCardStore(tx, nil).CreateMultiple(ctx, batch))

		learning := postgres.NewPostgresLearningStore(tx, nil)
		rec, err := domain.NewLearningRecord(topic.OwnerID, topic.ID, batch[1].ID)
		require.NoError(t, err)

		created, err := learning.Record(ctx, rec)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = learning.Record(ctx, rec)
		require.NoError(t, err)
		assert.False(t, created)

		learnt, err := learning.LearntCardIDs(ctx, topic.OwnerID, topic.ID)
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]bool{batch[1].ID: true}, learnt)
	})
}

func TestTaskStore_Integration(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		tasks := postgres.NewPostgresTaskStore(tx, nil)

		pending := task.NewMockTask(uuid.New(), task.TaskTypeImageRender, []byte(`{"card_id":"x"}`))
		empty := task.NewMockTask(uuid.New(), task.TaskTypeImageRender, nil)
		require.NoError(t, tasks.SaveTask(ctx, pending))
		require.NoError(t, tasks.SaveTask(ctx, empty))

		got, err := tasks.GetPendingTasks(ctx)
		require.NoError(t, err)
		ids := map[uuid.UUID]task.Task{}
		for _, rec := range got {
			ids[rec.ID()] = rec
		}
		require.Contains(t, ids, pending.ID())
		require.Contains(t, ids, empty.ID())
		assert.JSONEq(t, `{"card_id":"x"}`, string(ids[pending.ID()].Payload()))
		assert.JSONEq(t, `{}`, string(ids[empty.ID()].Payload()))

		require.NoError(t, tasks.UpdateTaskStatus(ctx, pending.ID(), task.TaskStatusProcessing, ""))
		stuck, err := tasks.GetProcessingTasks(ctx, time.Hour)
		require.NoError(t, err)
		for _, rec := range stuck {
			assert.NotEqual(t, pending.ID(), rec.ID())
		}

		processing, err := tasks.GetProcessingTasks(ctx, 0)
		require.NoError(t, err)
		found := false
		for _, rec := range processing {
			if rec.ID() == pending.ID() {
				found = true
			}
		}
		assert.True(t, found)

		require.NoError(t, tasks.UpdateTaskStatus(ctx, pending.ID(), task.TaskStatusFailed, "render failed"))
		require.NoError(t, tasks.UpdateTaskStatus(ctx, uuid.New(), task.TaskStatusFailed, "missing"))
	})
}

func TestDBTransactor_Integration(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)
	ctx := context.Background()

	stores := store.Stores{
		Topics:   postgres.NewPostgresTopicStore(db, nil),
		Cards:    postgres.NewPostgresCardStore(db, nil),
		Learning: postgres.NewPostgresLearningStore(db, nil),
	}
	tx := store.NewDBTransactor(db, stores)

	topic, err := domain.NewTopic(uuid.New(), "Rolled back", "")
	require.NoError(t, err)

	err = tx.InTx(ctx, func(ctx context.Context, s store.Stores) error {
		if err := s.Topics.Create(ctx, topic); err != nil {
			return err
		}
		return s.Cards.CreateMultiple(ctx, []*domain.Card{{ID: uuid.New()}})
	})
	require.ErrorIs(t, err, store.ErrInvalidEntity)

	_, err = stores.Topics.GetByID(ctx, topic.ID)
	assert.ErrorIs(t, err, store.ErrTopicNotFound)
}
