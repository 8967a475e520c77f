package guardrail

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/phrazzld/loopmind-api/internal/domain"
)

// MaxHookWords caps the length of every hook.
const MaxHookWords = 12

const fallbackHook = "Key idea explained"

var interrogatives = map[string]struct{}{
	"why": {}, "how": {}, "what": {}, "when": {}, "where": {},
	"is": {}, "are": {}, "can": {}, "do": {}, "does": {}, "did": {},
	"should": {}, "could": {}, "would": {},
}

// HookGuardrail forces image-card hooks into statement form.
type HookGuardrail struct{}

// Apply rewrites the hook of every image card in place and returns cards.
func (HookGuardrail) Apply(cards []*domain.Card) []*domain.Card {
	for _, c := range cards {
		if c.IsImage() {
			c.Hook = StatementHook(c.Hook, c.Title)
		}
	}
	return cards
}

// StatementHook turns hook into a statement of at most MaxHookWords words.
// Question marks and leading interrogative words are removed; an empty result
// falls back to the title and then to a generic phrase.
func StatementHook(hook, title string) string {
	s := stripQuestion(hook)
	if s == "" {
		s = stripQuestion(title)
	}
	if s == "" {
		s = fallbackHook
	}

	words := strings.Fields(capitalize(s))
	if len(words) > MaxHookWords {
		words = words[:MaxHookWords]
	}
	return strings.Join(words, " ")
}

func stripQuestion(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "?", ""))
	for len(words) > 0 && isInterrogative(words[0]) {
		words = words[1:]
	}
	return strings.TrimRight(strings.Join(words, " "), "?.! ")
}

func isInterrogative(word string) bool {
	w := strings.ToLower(strings.TrimFunc(word, unicode.IsPunct))
	_, ok := interrogatives[w]
	return ok
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
