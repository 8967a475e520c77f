package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTopic(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	topic, err := NewTopic(ownerID, "Heart health", "")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, topic.ID)
	assert.Equal(t, ownerID, topic.OwnerID)
	assert.Equal(t, TopicStatusGenerating, topic.Status)
	assert.Equal(t, defaultIcon, topic.Icon)
	assert.False(t, topic.CreatedAt.IsZero())

	_, err = NewTopic(uuid.Nil, "Heart health", "")
	assert.Equal(t, ErrEmptyTopicOwnerID, err)

	_, err = NewTopic(ownerID, "   ", "")
	assert.Equal(t, ErrEmptyTopicTitle, err)
}

func TestTopicUpdateStatus(t *testing.T) {
	t.Parallel()

	topic, err := NewTopic(uuid.New(), "Sleep", "🧠")
	require.NoError(t, err)

	require.NoError(t, topic.UpdateStatus(TopicStatusImagesPending))
	assert.Equal(t, TopicStatusImagesPending, topic.Status)

	assert.Equal(t, ErrInvalidTopicStatus, topic.UpdateStatus("archived"))
	assert.Equal(t, TopicStatusImagesPending, topic.Status)
}

func TestDeriveTitle(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 70)
	tests := []struct {
		name  string
		title string
		text  string
		want  string
	}{
		{"explicit title wins", "  Cholesterol  ", "ignored", "Cholesterol"},
		{"first line", "", "How to keep heart healthy?\nMore detail", "How to keep heart healthy?"},
		{"skips blank lines", "", "\n\n  Budgeting basics\n", "Budgeting basics"},
		{"truncates long line", "", long, strings.Repeat("a", 57) + "..."},
		{"exactly sixty kept", "", strings.Repeat("b", 60), strings.Repeat("b", 60)},
		{"empty", "", "   ", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, DeriveTitle(tc.title, tc.text))
		})
	}
}

func TestPickIcon(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "❤️", PickIcon("How to keep heart healthy?"))
	assert.Equal(t, "🥗", PickIcon("High PROTEIN breakfast"))
	assert.Equal(t, "💻", PickIcon("Learning Python"))
	assert.Equal(t, defaultIcon, PickIcon("Medieval history"))
}
