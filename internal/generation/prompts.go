package generation

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/phrazzld/loopmind-api/internal/domain"
	"github.com/phrazzld/loopmind-api/internal/guardrail"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var prompts = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

const topicHintRunes = 80

type conceptsData struct {
	Count   int
	Content string
}

type conceptsFixData struct {
	Count int
	Draft string
}

type cardsData struct {
	Count            int
	MaxImages        int
	AllowText        bool
	MaxLabels        int
	MaxWordsPerLabel int
	MaxLabelWords    int
	PromptLabels     []string
	VisualBalance    string
	TopicHint        string
	Concepts         string
}

type cardsFixData struct {
	Count     int
	TopicHint string
	Concepts  string
	Draft     string
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("%w: failed to execute prompt template %s: %v", ErrConfig, name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func newCardsData(count, maxImages int, allowText bool, topicHint, concepts string) cardsData {
	return cardsData{
		Count:            count,
		MaxImages:        maxImages,
		AllowText:        allowText,
		MaxLabels:        guardrail.MaxLabels,
		MaxWordsPerLabel: guardrail.MaxWordsPerLabel,
		MaxLabelWords:    guardrail.MaxLabelTotalWords,
		PromptLabels:     domain.PromptLabels,
		VisualBalance:    guardrail.VisualBalanceRules,
		TopicHint:        topicHint,
		Concepts:         concepts,
	}
}

func repairPrompt(text string) string {
	return "Fix the following into STRICTLY VALID JSON. " +
		"Return ONLY the corrected JSON. No markdown. No commentary.\n\n" + text
}

// TopicHint steers the card designer toward scene-based visuals for the
// user's topic. The title is preferred; otherwise the first 80 runes of text
// are used.
func TopicHint(title, text string) string {
	subject := strings.TrimSpace(title)
	if subject == "" {
		subject = truncateRunes(text, topicHintRunes)
	}
	return "User topic: " + subject + "\n" +
		"If topic is health/fitness/habits/productivity/finance: prefer humans in action + real objects.\n" +
		"Avoid boring textbook diagrams unless absolutely required.\n"
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
