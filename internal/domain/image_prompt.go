package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Structured image prompt labels, in the order they must appear.
const (
	LabelSubject          = "Subject:"
	LabelContext          = "Context/Environment:"
	LabelStyle            = "Style:"
	LabelLighting         = "Lighting:"
	LabelCamera           = "Camera:"
	LabelMood             = "Mood:"
	LabelColorPalette     = "Color palette:"
	LabelTextInImage      = "Text in image:"
	LabelQualityModifiers = "Quality modifiers:"
)

// PromptLabels is the fixed label order of a structured image prompt.
var PromptLabels = []string{
	LabelSubject,
	LabelContext,
	LabelStyle,
	LabelLighting,
	LabelCamera,
	LabelMood,
	LabelColorPalette,
	LabelTextInImage,
	LabelQualityModifiers,
}

// PromptField is one labeled line of a structured image prompt.
type PromptField struct {
	Label string
	Value string
}

// ImagePrompt is a structured image prompt held as ordered (label, value)
// pairs. It is serialized to multiline text only when it leaves the process.
// A nil prompt encodes as JSON null.
type ImagePrompt []PromptField

// ParseImagePrompt reads "Label: value" lines. Lines without a known label
// continue the previous field; text before the first label is dropped.
// Blank input yields nil. Non-blank input without labels yields an empty,
// non-nil prompt so callers can tell "absent" from "malformed".
func ParseImagePrompt(text string) ImagePrompt {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	p := ImagePrompt{}
	index := make(map[string]int)
	current := -1
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		if line == "" {
			continue
		}

		label, value, ok := matchLabel(line)
		if !ok {
			if current >= 0 {
				p[current].Value = joinValue(p[current].Value, line)
			}
			continue
		}

		if i, seen := index[label]; seen {
			p[i].Value = joinValue(p[i].Value, value)
			current = i
			continue
		}
		p = append(p, PromptField{Label: label, Value: value})
		current = len(p) - 1
		index[label] = current
	}
	return p
}

func matchLabel(line string) (string, string, bool) {
	lower := strings.ToLower(line)
	for _, label := range PromptLabels {
		if strings.HasPrefix(lower, strings.ToLower(label)) {
			return label, strings.TrimSpace(line[len(label):]), true
		}
	}
	return "", "", false
}

func joinValue(existing, more string) string {
	if existing == "" {
		return more
	}
	if more == "" {
		return existing
	}
	return existing + " " + more
}

// Get returns the value stored under label.
func (p ImagePrompt) Get(label string) (string, bool) {
	for _, f := range p {
		if f.Label == label {
			return f.Value, true
		}
	}
	return "", false
}

// Missing lists the required labels the prompt lacks, in label order.
func (p ImagePrompt) Missing() []string {
	var missing []string
	for _, label := range PromptLabels {
		if _, ok := p.Get(label); !ok {
			missing = append(missing, label)
		}
	}
	return missing
}

// Complete reports whether every required label is present.
func (p ImagePrompt) Complete() bool {
	return p != nil && len(p.Missing()) == 0
}

// Canonical returns the prompt with exactly the required labels in fixed
// order. Labels the prompt lacks get empty values.
func (p ImagePrompt) Canonical() ImagePrompt {
	out := make(ImagePrompt, 0, len(PromptLabels))
	for _, label := range PromptLabels {
		v, _ := p.Get(label)
		out = append(out, PromptField{Label: label, Value: v})
	}
	return out
}

// With returns a copy of the prompt with label set to value, appending the
// field when absent.
func (p ImagePrompt) With(label, value string) ImagePrompt {
	out := make(ImagePrompt, len(p), len(p)+1)
	copy(out, p)
	for i := range out {
		if out[i].Label == label {
			out[i].Value = value
			return out
		}
	}
	return append(out, PromptField{Label: label, Value: value})
}

// String renders one "Label value" line per field.
func (p ImagePrompt) String() string {
	var b strings.Builder
	for _, f := range p {
		b.WriteString(f.Label)
		if f.Value != "" {
			b.WriteByte(' ')
			b.WriteString(f.Value)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// MarshalJSON encodes the prompt as its multiline text, or null.
func (p ImagePrompt) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts the multiline text form or null.
func (p *ImagePrompt) UnmarshalJSON(data []byte) error {
	if isJSONNull(data) {
		*p = nil
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("%w: image_prompt: %v", ErrInvalidFormat, err)
	}
	*p = ParseImagePrompt(text)
	return nil
}
