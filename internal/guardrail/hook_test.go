package guardrail

import (
	"strings"
	"testing"

	"github.com/phrazzld/loopmind-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestStatementHook(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		hook  string
		title string
		want  string
	}{
		{"question becomes statement", "Why does sleep matter?", "Sleep", "Sleep matter"},
		{"statement kept", "drinking water daily helps!", "", "Drinking water daily helps"},
		{"punctuated interrogative", "Why, exactly, is it so?", "", "Exactly, is it so"},
		{"empty falls back to title", "", "Sleep cycles", "Sleep cycles"},
		{"title is normalized too", "Why?", "What is REM?", "REM"},
		{"generic fallback", "???", "", "Key idea explained"},
		{"interrogative only title", "How?", "Why?", "Key idea explained"},
		{"unicode first letter", "élan matters", "", "Élan matters"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, StatementHook(tc.hook, tc.title))
		})
	}
}

func TestStatementHookProperties(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Why does sleep matter?",
		"How do you build a habit that actually sticks over many months and years?",
		"Can Should Would could this work?",
		"What?? Is it? really?",
	}

	for _, in := range inputs {
		got := StatementHook(in, "Fallback title")
		words := strings.Fields(got)

		assert.NotContains(t, got, "?")
		assert.LessOrEqual(t, len(words), MaxHookWords)
		if assert.NotEmpty(t, words) {
			assert.False(t, isInterrogative(words[0]), "hook %q starts with an interrogative", got)
		}
	}
}

func TestHookGuardrailOnlyTouchesImages(t *testing.T) {
	t.Parallel()

	cards := []*domain.Card{
		{PostType: domain.PostTypeImage, Hook: "Why does sleep matter?"},
		{PostType: domain.PostTypeQuiz, Hook: "Why does sleep matter?"},
		{PostType: domain.PostTypeFlashcard, Hook: "What is REM?"},
	}

	out := HookGuardrail{}.Apply(cards)

	assert.Equal(t, "Sleep matter", out[0].Hook)
	assert.Equal(t, "Why does sleep matter?", out[1].Hook)
	assert.Equal(t, "What is REM?", out[2].Hook)
}
