package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Repair call parameters.
const (
	repairMaxTokens   int32   = 2500
	repairTemperature float32 = 0.1
)

// Extractor recovers a JSON value from free-form model text. Local bracket
// extraction is tried first; only when it fails is one repair call made.
type Extractor struct {
	invoker Invoker
	logger  *slog.Logger
}

// NewExtractor creates an Extractor that repairs through invoker.
func NewExtractor(invoker Invoker, logger *slog.Logger) *Extractor {
	return &Extractor{invoker: invoker, logger: logger.With("component", "json_extractor")}
}

// Extract returns the JSON array or object found in text. It fails with
// ErrParse when neither the text nor the repaired text yields valid JSON, and
// with ErrInvocation when the repair call itself fails.
func (e *Extractor) Extract(ctx context.Context, text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	if raw, ok := extractLocal(text); ok {
		return raw, nil
	}

	e.logger.WarnContext(ctx, "model output not parseable, requesting JSON repair",
		"output_length", len(text))

	fixed, err := e.invoker.Invoke(ctx, Request{
		Prompt:      repairPrompt(text),
		MaxTokens:   repairMaxTokens,
		Temperature: repairTemperature,
	})
	if err != nil {
		return nil, invocationError("json repair", err)
	}

	if raw, ok := extractLocal(strings.TrimSpace(fixed)); ok {
		return raw, nil
	}
	return nil, fmt.Errorf("%w: could not parse model output after repair", ErrParse)
}

// extractLocal tries the outermost [...] span, then the outermost {...} span.
func extractLocal(text string) (json.RawMessage, bool) {
	for _, delims := range [][2]string{{"[", "]"}, {"{", "}"}} {
		start := strings.Index(text, delims[0])
		end := strings.LastIndex(text, delims[1])
		if start == -1 || end <= start {
			continue
		}
		span := text[start : end+1]
		if json.Valid([]byte(span)) {
			return json.RawMessage(span), true
		}
	}
	return nil, false
}

// asList splits raw into its elements when it is a JSON array.
func asList(raw json.RawMessage) ([]json.RawMessage, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}
