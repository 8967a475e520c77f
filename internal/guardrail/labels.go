package guardrail

import "strings"

// Text density limits for image labels.
const (
	MaxLabels          = 3
	MaxWordsPerLabel   = 2
	MaxLabelTotalWords = 8
)

// labelStripper removes characters that would break the rendered prompt: "?"
// and the "|" label separator.
var labelStripper = strings.NewReplacer("?", "", "|", "")

// NormalizeLabels enforces the text density rules on image labels: empty
// labels are dropped, question marks and pipes are removed, each label is cut
// to MaxWordsPerLabel words, duplicates are removed case-insensitively, and at
// most MaxLabels labels totalling MaxLabelTotalWords words are kept. It returns nil when nothing survives.
func NormalizeLabels(labels []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(labels))
	budget := MaxLabelTotalWords

	for _, raw := range labels {
		if len(out) == MaxLabels || budget == 0 {
			break
		}

		words := strings.Fields(labelStripper.Replace(raw))
		if len(words) == 0 {
			continue
		}
		if len(words) > MaxWordsPerLabel {
			words = words[:MaxWordsPerLabel]
		}
		if len(words) > budget {
			words = words[:budget]
		}

		label := strings.Join(words, " ")
		key := strings.ToLower(label)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, label)
		budget -= len(words)
	}
	return out
}
