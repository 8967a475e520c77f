package generation

import (
	"context"
	"encoding/json"
	"log/slog"
)

// strategy builds one generation request for a pass. draft is the previous
// strategy's parsed output, or nil for the first strategy.
type strategy struct {
	name  string
	build func(draft json.RawMessage) (Request, error)
}

// pass runs strategies in order until one yields a list of exactly expected
// elements. Invocation and parse failures abort immediately; a list of the
// wrong length moves on to the next strategy. When every strategy is
// exhausted the result is a *CountError.
type pass struct {
	stage      string
	strategies []strategy
	invoker    Invoker
	extractor  *Extractor
	logger     *slog.Logger
}

func (p pass) run(ctx context.Context, expected int) ([]json.RawMessage, error) {
	var draft json.RawMessage
	actual := -1

	for attempt, s := range p.strategies {
		req, err := s.build(draft)
		if err != nil {
			return nil, err
		}

		p.logger.DebugContext(ctx, "invoking model",
			"stage", p.stage,
			"strategy", s.name,
			"attempt", attempt+1,
			"max_tokens", req.MaxTokens)

		text, err := p.invoker.Invoke(ctx, req)
		if err != nil {
			return nil, invocationError(p.stage+" "+s.name, err)
		}

		raw, err := p.extractor.Extract(ctx, text)
		if err != nil {
			return nil, err
		}

		items, isList := asList(raw)
		if isList && len(items) == expected {
			return items, nil
		}

		actual = -1
		if isList {
			actual = len(items)
		}
		p.logger.WarnContext(ctx, "model returned wrong count",
			"stage", p.stage,
			"strategy", s.name,
			"expected", expected,
			"actual", actual)
		draft = raw
	}

	return nil, &CountError{Stage: p.stage, Expected: expected, Actual: actual}
}
