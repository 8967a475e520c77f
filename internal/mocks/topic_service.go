package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/domain"
	"github.com/phrazzld/loopmind-api/internal/service"
)

// MockTopicService implements service.TopicService for testing
type MockTopicService struct {
	GenerateTopicFn func(ctx context.Context, ownerID uuid.UUID, req service.GenerateTopicRequest) (*service.GeneratedTopic, error)
	GetTopicFn      func(ctx context.Context, ownerID, topicID uuid.UUID) (*service.TopicDetail, error)
	ListTopicsFn    func(ctx context.Context, ownerID uuid.UUID) ([]*domain.Topic, error)
	MarkLearntFn    func(ctx context.Context, ownerID, topicID, cardID uuid.UUID) (bool, error)
}

var _ service.TopicService = (*MockTopicService)(nil)

// GenerateTopic implements service.TopicService
func (m *MockTopicService) GenerateTopic(
	ctx context.Context,
	ownerID uuid.UUID,
	req service.GenerateTopicRequest,
) (*service.GeneratedTopic, error) {
	return m.GenerateTopicFn(ctx, ownerID, req)
}

// GetTopic implements service.TopicService
func (m *MockTopicService) GetTopic(ctx context.Context, ownerID, topicID uuid.UUID) (*service.TopicDetail, error) {
	return m.GetTopicFn(ctx, ownerID, topicID)
}

// ListTopics implements service.TopicService
func (m *MockTopicService) ListTopics(ctx context.Context, ownerID uuid.UUID) ([]*domain.Topic, error) {
	return m.ListTopicsFn(ctx, ownerID)
}

// MarkLearnt implements service.TopicService
func (m *MockTopicService) MarkLearnt(ctx context.Context, ownerID, topicID, cardID uuid.UUID) (bool, error) {
	return m.MarkLearntFn(ctx, ownerID, topicID, cardID)
}
