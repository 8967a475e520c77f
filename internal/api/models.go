package api

import (
	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/domain"
	"github.com/phrazzld/loopmind-api/internal/service"
)

// Common request/response structures

// GenerateTopicRequest defines the payload for the topic generation endpoint.
// Title is optional; it is derived from the text when empty.
type GenerateTopicRequest struct {
	Text  string `json:"text"  validate:"required"`
	Title string `json:"title" validate:"max=200"`
}

// TopicListResponse defines the response of GET /api/topics.
type TopicListResponse struct {
	Topics []*domain.Topic `json:"topics"`
}

// MarkLearntResponse defines the response of the learnt endpoint.
type MarkLearntResponse struct {
	CardID uuid.UUID `json:"card_id"`
	Learnt bool      `json:"learnt"`
}

// GenerateTopicResponse is the body returned after a successful generation.
type GenerateTopicResponse = service.GeneratedTopic

// TopicDetailResponse is the body returned for a single topic.
type TopicDetailResponse = service.TopicDetail
