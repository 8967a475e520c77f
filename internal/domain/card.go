package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardOwnerIDEmpty is returned when a card's owner ID is empty or nil.
	ErrCardOwnerIDEmpty = errors.New("card owner ID cannot be empty")

	// ErrCardTopicIDEmpty is returned when a card's topic ID is empty or nil.
	ErrCardTopicIDEmpty = errors.New("card topic ID cannot be empty")

	// ErrInvalidPostType is returned when a card's post type is not one of the known types.
	ErrInvalidPostType = errors.New("invalid post type")

	// ErrInvalidCardOrder is returned when a card's position is not positive.
	ErrInvalidCardOrder = errors.New("card order must be positive")
)

// PostType is the content type a card carries. Exactly one content payload
// matching the post type is populated on a finished card.
type PostType string

// Known post types
const (
	PostTypeImage     PostType = "image"
	PostTypeFlashcard PostType = "flashcard"
	PostTypeQuiz      PostType = "quiz"
)

// PostTypes lists every post type in summary order.
var PostTypes = []PostType{PostTypeImage, PostTypeQuiz, PostTypeFlashcard}

// Valid reports whether p is a known post type.
func (p PostType) Valid() bool {
	switch p {
	case PostTypeImage, PostTypeFlashcard, PostTypeQuiz:
		return true
	}
	return false
}

// VisualType describes the layout the card's visual payload follows.
type VisualType string

// Known visual types
const (
	VisualTypeComparison    VisualType = "comparison"
	VisualTypeBeforeAfter   VisualType = "before_after"
	VisualTypeDiagram       VisualType = "diagram"
	VisualTypeStepBreakdown VisualType = "step_breakdown"
	VisualTypeMentalModel   VisualType = "mental_model"
)

// Valid reports whether v is a known visual type.
func (v VisualType) Valid() bool {
	switch v {
	case VisualTypeComparison, VisualTypeBeforeAfter, VisualTypeDiagram,
		VisualTypeStepBreakdown, VisualTypeMentalModel:
		return true
	}
	return false
}

// ImageStyle is the rendering style of an image card. The empty style
// encodes as JSON null.
type ImageStyle string

// Known image styles
const (
	ImageStyleCartoon          ImageStyle = "cartoon"
	ImageStyleAnime            ImageStyle = "anime"
	ImageStyle3D               ImageStyle = "3d"
	ImageStyleCinematic        ImageStyle = "cinematic"
	ImageStyleFlatIllustration ImageStyle = "flat_illustration"
)

// Valid reports whether s is a known, non-empty image style.
func (s ImageStyle) Valid() bool {
	switch s {
	case ImageStyleCartoon, ImageStyleAnime, ImageStyle3D, ImageStyleCinematic, ImageStyleFlatIllustration:
		return true
	}
	return false
}

// MarshalJSON encodes the empty style as null.
func (s ImageStyle) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON accepts a string or null.
func (s *ImageStyle) UnmarshalJSON(data []byte) error {
	if isJSONNull(data) {
		*s = ""
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: image_style: %v", ErrInvalidFormat, err)
	}
	*s = ImageStyle(raw)
	return nil
}

// Flashcard is a single question/answer pair. On the wire it is a mapping
// with exactly one key.
type Flashcard struct {
	Question string
	Answer   string
}

// MarshalJSON encodes the flashcard as {"<question>": "<answer>"}.
func (f Flashcard) MarshalJSON() ([]byte, error) {
	q, err := json.Marshal(f.Question)
	if err != nil {
		return nil, err
	}
	a, err := json.Marshal(f.Answer)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	buf.Write(q)
	buf.WriteByte(':')
	buf.Write(a)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the first key/value pair of a mapping, in document
// order. Extra pairs are dropped. Non-string answers keep their JSON text.
func (f *Flashcard) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: flashcard: %v", ErrInvalidFormat, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: flashcard must be an object", ErrInvalidFormat)
	}
	if !dec.More() {
		*f = Flashcard{}
		return nil
	}
	keyTok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: flashcard: %v", ErrInvalidFormat, err)
	}
	key, _ := keyTok.(string)
	var value json.RawMessage
	if err := dec.Decode(&value); err != nil {
		return fmt.Errorf("%w: flashcard: %v", ErrInvalidFormat, err)
	}
	answer := string(value)
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		answer = s
	}
	*f = Flashcard{Question: key, Answer: answer}
	return nil
}

// Quiz is a four-choice question.
type Quiz struct {
	Question    string   `json:"question"`
	Choices     []string `json:"choices"`
	AnswerIndex int      `json:"answer_index"`
	Explanation string   `json:"explanation"`
}

// QuizChoiceCount is the number of choices every quiz carries.
const QuizChoiceCount = 4

// Card is one atomic learning unit. Generation fills the content fields;
// persistence fills the identity fields.
type Card struct {
	ID       uuid.UUID `json:"id"`
	OwnerID  uuid.UUID `json:"owner_id"`
	TopicID  uuid.UUID `json:"topic_id"`
	Order    int       `json:"order"`
	ImageKey string    `json:"image_key,omitempty"`

	Title            string         `json:"title"`
	Hook             string         `json:"hook"`
	PostType         PostType       `json:"post_type"`
	MicroExplanation []string       `json:"micro_explanation"`
	Flashcard        *Flashcard     `json:"flashcard"`
	Quiz             *Quiz          `json:"quiz"`
	VisualType       VisualType     `json:"visual_type"`
	VisualPayload    map[string]any `json:"visual_payload"`
	ImageStyle       ImageStyle     `json:"image_style"`
	ImageLabels      []string       `json:"image_labels"`
	ImagePrompt      ImagePrompt    `json:"image_prompt"`
	Takeaways        []string       `json:"takeaways"`
	MasteryQuestion  string         `json:"mastery_question"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the identity fields set before persistence.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}
	if c.OwnerID == uuid.Nil {
		return ErrCardOwnerIDEmpty
	}
	if c.TopicID == uuid.Nil {
		return ErrCardTopicIDEmpty
	}
	if c.Order < 1 {
		return ErrInvalidCardOrder
	}
	if !c.PostType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPostType, c.PostType)
	}
	return nil
}

// IsImage reports whether the card is an image card.
func (c *Card) IsImage() bool {
	return c.PostType == PostTypeImage
}

// Rendered reports whether the card's image has been written back.
func (c *Card) Rendered() bool {
	return c.ImageKey != ""
}

// CardSummary counts cards by post type.
type CardSummary struct {
	Image         int `json:"image"`
	Quiz          int `json:"quiz"`
	Flashcard     int `json:"flashcard"`
	Total         int `json:"total"`
	ImagesPending int `json:"images_pending"`
}

// Summarize counts cards by post type. ImagesPending counts image cards that
// carry a prompt but have not been rendered.
func Summarize(cards []*Card) CardSummary {
	var s CardSummary
	for _, c := range cards {
		switch c.PostType {
		case PostTypeImage:
			s.Image++
			if c.ImagePrompt != nil && !c.Rendered() {
				s.ImagesPending++
			}
		case PostTypeQuiz:
			s.Quiz++
		case PostTypeFlashcard:
			s.Flashcard++
		}
		s.Total++
	}
	return s
}

func isJSONNull(data []byte) bool {
	return len(bytes.TrimSpace(data)) == 0 || string(bytes.TrimSpace(data)) == "null"
}
