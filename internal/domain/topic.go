package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TopicStatus represents the lifecycle state of a topic
type TopicStatus string

// Possible topic status values
const (
	TopicStatusGenerating    TopicStatus = "generating"
	TopicStatusImagesPending TopicStatus = "images_pending"
	TopicStatusReady         TopicStatus = "ready"
	TopicStatusError         TopicStatus = "error"
)

// Common validation errors for Topic
var (
	ErrEmptyTopicID       = errors.New("topic ID cannot be empty")
	ErrEmptyTopicOwnerID  = errors.New("topic owner ID cannot be empty")
	ErrEmptyTopicTitle    = errors.New("topic title cannot be empty")
	ErrInvalidTopicStatus = errors.New("invalid topic status")
)

const (
	maxTitleRunes     = 60
	truncatedTitleLen = 57
	defaultIcon       = "📚"
)

// Topic is one generation job over one raw-text submission. Its cards are
// produced in a single pipeline run and then only touched by image
// rendering and learning records.
type Topic struct {
	ID          uuid.UUID   `json:"id"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	Title       string      `json:"title"`
	Icon        string      `json:"icon"`
	Status      TopicStatus `json:"status"`
	CardCount   int         `json:"card_count"`
	LearntCount int         `json:"learnt_count"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewTopic creates a topic in the generating state.
// Returns an error if validation fails.
func NewTopic(ownerID uuid.UUID, title, icon string) (*Topic, error) {
	now := time.Now().UTC()
	if icon == "" {
		icon = defaultIcon
	}
	topic := &Topic{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     title,
		Icon:      icon,
		Status:    TopicStatusGenerating,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := topic.Validate(); err != nil {
		return nil, err
	}

	return topic, nil
}

// Validate checks if the Topic has valid data.
func (t *Topic) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTopicID
	}

	if t.OwnerID == uuid.Nil {
		return ErrEmptyTopicOwnerID
	}

	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTopicTitle
	}

	if !t.Status.Valid() {
		return ErrInvalidTopicStatus
	}

	return nil
}

// UpdateStatus updates the topic's status and updates the UpdatedAt timestamp.
// Returns an error if the new status is invalid.
func (t *Topic) UpdateStatus(status TopicStatus) error {
	if !status.Valid() {
		return ErrInvalidTopicStatus
	}

	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Valid reports whether s is a known topic status.
func (s TopicStatus) Valid() bool {
	switch s {
	case TopicStatusGenerating, TopicStatusImagesPending, TopicStatusReady, TopicStatusError:
		return true
	default:
		return false
	}
}

// DeriveTitle returns title when set, otherwise the first non-empty line of
// text, shortened to 57 runes plus "..." when longer than 60 runes.
func DeriveTitle(title, text string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > maxTitleRunes {
			return string([]rune(line)[:truncatedTitleLen]) + "..."
		}
		return line
	}
	return ""
}

var iconKeywords = []struct {
	icon     string
	keywords []string
}{
	{"❤️", []string{"heart", "cardio", "cholesterol", "blood pressure", "fitness", "exercise", "workout", "gym"}},
	{"🥗", []string{"diet", "food", "nutrition", "recipe", "protein", "calories"}},
	{"💻", []string{"code", "python", "react", "sql", "javascript", "software"}},
	{"📐", []string{"math", "algebra", "statistics", "probability"}},
	{"🔬", []string{"science", "physics", "chemistry", "biology"}},
	{"📈", []string{"business", "marketing", "finance", "economy", "money", "budget"}},
	{"🧠", []string{"psychology", "brain", "mind", "habits"}},
	{"☁️", []string{"aws", "cloud", "devops", "lambda", "dynamodb"}},
	{"🤖", []string{"machine learning", "ai", "neural", "llm"}},
}

// PickIcon chooses an emoji for a topic by keyword. The first matching group
// wins.
func PickIcon(text string) string {
	t := strings.ToLower(text)
	for _, group := range iconKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(t, kw) {
				return group.icon
			}
		}
	}
	return defaultIcon
}
