package generation_test

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phrazzld/loopmind-api/internal/generation"
)

var exactCount = regexp.MustCompile(`EXACTLY (\d+)`)

func requestedCount(prompt string) int {
	m := exactCount.FindStringSubmatch(prompt)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func conceptsJSON(n int) string {
	items := make([]map[string]any, n)
	for i := range items {
		items[i] = map[string]any{
			"order":       n - i, // deliberately wrong
			"title":       fmt.Sprintf("Concept %d", i+1),
			"key_insight": "A practical insight.",
			"importance":  "It matters.",
		}
	}
	data, _ := json.Marshal(items)
	return string(data)
}

// imageCardsJSON answers with n image cards whose hooks are questions, so
// every guardrail has work to do.
func imageCardsJSON(n int) string {
	items := make([]map[string]any, n)
	for i := range items {
		items[i] = map[string]any{
			"title":             fmt.Sprintf("Heart habit %d", i+1),
			"hook":              fmt.Sprintf("Why does habit %d matter for your heart?", i+1),
			"post_type":         "image",
			"micro_explanation": "Walk every day. It strengthens the heart.",
			"flashcard":         nil,
			"quiz":              nil,
			"visual_type":       "before_after",
			"visual_payload":    map[string]any{"before": "couch", "after": "park"},
			"image_style":       "cinematic",
			"image_labels":      []string{"Walk Daily Now", "Heart"},
			"image_prompt":      "Subject: A person walking\nStyle: cinematic",
			"takeaways":         []string{"Walk", "Eat well", "Sleep"},
			"mastery_question":  fmt.Sprintf("What does habit %d improve?", i+1),
		}
	}
	data, _ := json.Marshal(items)
	return "```json\n" + string(data) + "\n```"
}

// fakeModel answers concept and card prompts with exactly the requested
// number of items.
func fakeModel(_ context.Context, req generation.Request) (string, error) {
	n := requestedCount(req.Prompt)
	switch {
	case strings.HasPrefix(req.Prompt, "Extract EXACTLY"):
		return "Here are the concepts:\n" + conceptsJSON(n), nil
	case strings.HasPrefix(req.Prompt, "Return STRICT JSON array"):
		return imageCardsJSON(n), nil
	default:
		return "", fmt.Errorf("%w: unexpected prompt", generation.ErrInvocation)
	}
}
