package generation

import (
	"math/rand"
	"strings"
	"sync"
	"unicode/utf8"
)

// Length buckets for count selection, in runes.
const (
	shortInputRunes  = 120
	mediumInputRunes = 400
	runesPerStep     = 2500
	shortInputBase   = 10
	mediumInputBase  = 9
)

// jitterChoices weights the jitter toward 0 and 1.
var jitterChoices = []int{0, 0, 1, 1, 2}

// CountSelector derives the target card count for a job. Short inputs get a
// higher base count so thin prompts still yield a rich set; longer inputs
// scale by length in coarse steps. It is safe for concurrent use.
type CountSelector struct {
	min, max int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCountSelector creates a selector for the inclusive range [lo, hi]
// drawing jitter from rng.
func NewCountSelector(lo, hi int, rng *rand.Rand) *CountSelector {
	return &CountSelector{min: lo, max: hi, rng: rng}
}

// Select returns the target count for text, always within the range.
func (s *CountSelector) Select(text string) int {
	n := utf8.RuneCountInString(strings.TrimSpace(text))

	var base int
	switch {
	case n < shortInputRunes:
		base = shortInputBase
	case n < mediumInputRunes:
		base = mediumInputBase
	default:
		base = s.min + min(s.max-s.min, n/runesPerStep)
	}

	s.mu.Lock()
	jitter := jitterChoices[s.rng.Intn(len(jitterChoices))]
	s.mu.Unlock()

	return max(s.min, min(s.max, base+jitter))
}
