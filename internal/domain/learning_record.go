package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyLearningRecordField is returned when a learning record lacks an identifier.
var ErrEmptyLearningRecordField = errors.New("learning record requires owner, topic and card IDs")

// LearningRecord marks a card as learnt by its owner. There is at most one
// record per (owner, card).
type LearningRecord struct {
	OwnerID  uuid.UUID `json:"owner_id"`
	TopicID  uuid.UUID `json:"topic_id"`
	CardID   uuid.UUID `json:"card_id"`
	LearntAt time.Time `json:"learnt_at"`
}

// NewLearningRecord creates a record stamped with the current time.
func NewLearningRecord(ownerID, topicID, cardID uuid.UUID) (*LearningRecord, error) {
	if ownerID == uuid.Nil || topicID == uuid.Nil || cardID == uuid.Nil {
		return nil, ErrEmptyLearningRecordField
	}
	return &LearningRecord{
		OwnerID:  ownerID,
		TopicID:  topicID,
		CardID:   cardID,
		LearntAt: time.Now().UTC(),
	}, nil
}
