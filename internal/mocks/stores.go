package mocks

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/domain"
	"github.com/phrazzld/loopmind-api/internal/store"
)

// MemoryDB holds the rows shared by the in-memory stores.
type MemoryDB struct {
	mu       sync.Mutex
	topics   map[uuid.UUID]domain.Topic
	cards    map[uuid.UUID]domain.Card
	learning map[[2]uuid.UUID]domain.LearningRecord

	// FailCreateCards makes CardStore.CreateMultiple fail when set
	FailCreateCards error
}

// NewMemoryDB creates an empty MemoryDB.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		topics:   make(map[uuid.UUID]domain.Topic),
		cards:    make(map[uuid.UUID]domain.Card),
		learning: make(map[[2]uuid.UUID]domain.LearningRecord),
	}
}

// Stores returns topic, card and learning stores backed by db.
func (db *MemoryDB) Stores() store.Stores {
	return store.Stores{
		Topics:   &MemoryTopicStore{db: db},
		Cards:    &MemoryCardStore{db: db},
		Learning: &MemoryLearningStore{db: db},
	}
}

// Topic returns a copy of the stored topic.
func (db *MemoryDB) Topic(id uuid.UUID) (domain.Topic, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, ok := db.topics[id]
	return t, ok
}

// CardCount returns the number of stored cards.
func (db *MemoryDB) CardCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.cards)
}

// memorySnapshot is a copy of every table, used for rollback.
type memorySnapshot struct {
	topics   map[uuid.UUID]domain.Topic
	cards    map[uuid.UUID]domain.Card
	learning map[[2]uuid.UUID]domain.LearningRecord
}

func (db *MemoryDB) snapshot() memorySnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := memorySnapshot{
		topics:   make(map[uuid.UUID]domain.Topic, len(db.topics)),
		cards:    make(map[uuid.UUID]domain.Card, len(db.cards)),
		learning: make(map[[2]uuid.UUID]domain.LearningRecord, len(db.learning)),
	}
	for k, v := range db.topics {
		s.topics[k] = v
	}
	for k, v := range db.cards {
		s.cards[k] = v
	}
	for k, v := range db.learning {
		s.learning[k] = v
	}
	return s
}

func (db *MemoryDB) restore(s memorySnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.topics, db.cards, db.learning = s.topics, s.cards, s.learning
}

// MemoryTransactor implements store.Transactor over a MemoryDB. A failing
// function rolls every change back.
type MemoryTransactor struct {
	DB *MemoryDB

	// Err is returned instead of running the function when set
	Err error

	calls int
}

var _ store.Transactor = (*MemoryTransactor)(nil)

// InTx implements store.Transactor.
func (t *MemoryTransactor) InTx(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) error {
	t.calls++
	if t.Err != nil {
		return t.Err
	}
	snap := t.DB.snapshot()
	if err := fn(ctx, t.DB.Stores()); err != nil {
		t.DB.restore(snap)
		return err
	}
	return nil
}

// Calls returns how many transactions were started.
func (t *MemoryTransactor) Calls() int { return t.calls }

// MemoryTopicStore implements store.TopicStore in memory.
type MemoryTopicStore struct{ db *MemoryDB }

var _ store.TopicStore = (*MemoryTopicStore)(nil)

// Create implements store.TopicStore.
func (s *MemoryTopicStore) Create(_ context.Context, topic *domain.Topic) error {
	if err := topic.Validate(); err != nil {
		return errors.Join(store.ErrInvalidEntity, err)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.topics[topic.ID]; ok {
		return store.ErrDuplicate
	}
	s.db.topics[topic.ID] = *topic
	return nil
}

// GetByID implements store.TopicStore.
func (s *MemoryTopicStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Topic, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.topics[id]
	if !ok {
		return nil, store.ErrTopicNotFound
	}
	return &t, nil
}

// ListByOwner implements store.TopicStore.
func (s *MemoryTopicStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Topic, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*domain.Topic{}
	for _, t := range s.db.topics {
		if t.OwnerID == ownerID {
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryTopicStore) update(id uuid.UUID, fn func(t *domain.Topic)) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.topics[id]
	if !ok {
		return store.ErrTopicNotFound
	}
	fn(&t)
	s.db.topics[id] = t
	return nil
}

// UpdateStatus implements store.TopicStore.
func (s *MemoryTopicStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.TopicStatus) error {
	if !status.Valid() {
		return store.ErrInvalidEntity
	}
	return s.update(id, func(t *domain.Topic) { t.Status = status })
}

// Finalize implements store.TopicStore.
func (s *MemoryTopicStore) Finalize(_ context.Context, id uuid.UUID, status domain.TopicStatus, cardCount int) error {
	return s.update(id, func(t *domain.Topic) {
		t.Status = status
		t.CardCount = cardCount
	})
}

// IncrementLearnt implements store.TopicStore.
func (s *MemoryTopicStore) IncrementLearnt(_ context.Context, id uuid.UUID) error {
	return s.update(id, func(t *domain.Topic) { t.LearntCount++ })
}

// WithTx implements store.TopicStore.
func (s *MemoryTopicStore) WithTx(*sql.Tx) store.TopicStore { return s }

// MemoryCardStore implements store.CardStore in memory.
type MemoryCardStore struct{ db *MemoryDB }

var _ store.CardStore = (*MemoryCardStore)(nil)

// CreateMultiple implements store.CardStore.
func (s *MemoryCardStore) CreateMultiple(_ context.Context, cards []*domain.Card) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.FailCreateCards != nil {
		return s.db.FailCreateCards
	}
	for _, c := range cards {
		if err := c.Validate(); err != nil {
			return errors.Join(store.ErrInvalidEntity, err)
		}
		s.db.cards[c.ID] = *c
	}
	return nil
}

// GetByID implements store.CardStore.
func (s *MemoryCardStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Card, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	return &c, nil
}

// ListByTopic implements store.CardStore.
func (s *MemoryCardStore) ListByTopic(_ context.Context, topicID uuid.UUID) ([]*domain.Card, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*domain.Card{}
	for _, c := range s.db.cards {
		if c.TopicID == topicID {
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// SetImageKey implements store.CardStore.
func (s *MemoryCardStore) SetImageKey(_ context.Context, id uuid.UUID, key string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.cards[id]
	if !ok {
		return store.ErrCardNotFound
	}
	c.ImageKey = key
	s.db.cards[id] = c
	return nil
}

// CountPendingImages implements store.CardStore.
func (s *MemoryCardStore) CountPendingImages(_ context.Context, topicID uuid.UUID) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n := 0
	for _, c := range s.db.cards {
		if c.TopicID == topicID && c.IsImage() && c.ImagePrompt != nil && !c.Rendered() {
			n++
		}
	}
	return n, nil
}

// WithTx implements store.CardStore.
func (s *MemoryCardStore) WithTx(*sql.Tx) store.CardStore { return s }

// MemoryLearningStore implements store.LearningStore in memory.
type MemoryLearningStore struct{ db *MemoryDB }

var _ store.LearningStore = (*MemoryLearningStore)(nil)

// Record implements store.LearningStore.
func (s *MemoryLearningStore) Record(_ context.Context, rec *domain.LearningRecord) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := [2]uuid.UUID{rec.OwnerID, rec.CardID}
	if _, ok := s.db.learning[key]; ok {
		return false, nil
	}
	s.db.learning[key] = *rec
	return true, nil
}

// LearntCardIDs implements store.LearningStore.
func (s *MemoryLearningStore) LearntCardIDs(_ context.Context, ownerID, topicID uuid.UUID) (map[uuid.UUID]bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make(map[uuid.UUID]bool)
	for _, r := range s.db.learning {
		if r.OwnerID == ownerID && r.TopicID == topicID {
			out[r.CardID] = true
		}
	}
	return out, nil
}

// WithTx implements store.LearningStore.
func (s *MemoryLearningStore) WithTx(*sql.Tx) store.LearningStore { return s }
