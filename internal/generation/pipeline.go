package generation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/phrazzld/loopmind-api/internal/config"
	"github.com/phrazzld/loopmind-api/internal/domain"
	"github.com/phrazzld/loopmind-api/internal/guardrail"
	"github.com/phrazzld/loopmind-api/internal/platform/logger"
)

// Input is one generation job.
type Input struct {
	Title string
	Text  string
}

// Result is the fully enforced output of a run.
type Result struct {
	Cards     []*domain.Card
	Summary   domain.CardSummary
	Target    int
	AllowText bool
}

// Pipeline runs the two generation passes and the guardrails in order. One
// Pipeline may serve concurrent runs; each run owns its concepts and cards.
type Pipeline struct {
	cfg      config.GenerationConfig
	selector *CountSelector
	concepts *ConceptExtractor
	designer *CardDesigner
	enforcer guardrail.ConstraintEnforcer
	prompts  guardrail.ImagePromptGuardrail
	hooks    guardrail.HookGuardrail
	logger   *slog.Logger
}

// NewPipeline wires a pipeline around invoker. rng drives count jitter and may
// be seeded for deterministic runs.
func NewPipeline(invoker Invoker, cfg config.GenerationConfig, rng *rand.Rand, log *slog.Logger) (*Pipeline, error) {
	if invoker == nil {
		return nil, fmt.Errorf("%w: invoker cannot be nil", ErrConfig)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source cannot be nil", ErrConfig)
	}
	if cfg.MinCards < 3 || cfg.MaxCards < cfg.MinCards {
		return nil, fmt.Errorf("%w: invalid card range [%d, %d]", ErrConfig, cfg.MinCards, cfg.MaxCards)
	}
	if cfg.MaxImages < 1 {
		return nil, fmt.Errorf("%w: max images must be at least 1", ErrConfig)
	}
	if cfg.MaxInputChars < 1 {
		return nil, fmt.Errorf("%w: max input chars must be positive", ErrConfig)
	}
	if log == nil {
		log = slog.Default()
	}

	extractor := NewExtractor(invoker, log)
	return &Pipeline{
		cfg:      cfg,
		selector: NewCountSelector(cfg.MinCards, cfg.MaxCards, rng),
		concepts: NewConceptExtractor(invoker, extractor, log),
		designer: NewCardDesigner(invoker, extractor, cfg, log),
		enforcer: guardrail.NewConstraintEnforcer(cfg),
		logger:   log.With("component", "generation_pipeline"),
	}, nil
}

// Run generates the cards for in. Any failure aborts the whole run; no
// partial card list is returned.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	log := logger.FromContextOrDefault(ctx, p.logger)

	text := truncateRunes(strings.TrimSpace(in.Text), p.cfg.MaxInputChars)
	if text == "" {
		return nil, domain.ErrEmptyContent
	}
	title := strings.TrimSpace(in.Title)

	n := p.selector.Select(text)
	allowText := guardrail.WantsTextInImage(text, title)
	hint := TopicHint(title, text)

	log.InfoContext(ctx, "starting generation",
		"target_count", n,
		"allow_text", allowText,
		"input_length", len(text))

	concepts, err := p.concepts.Extract(ctx, text, n)
	if err != nil {
		log.ErrorContext(ctx, "concept extraction failed", "error", err)
		return nil, err
	}

	cards, err := p.designer.Design(ctx, concepts, n, hint, allowText)
	if err != nil {
		log.ErrorContext(ctx, "card design failed", "error", err)
		return nil, err
	}

	cards = p.enforcer.Enforce(cards)
	cards = p.prompts.Apply(cards, allowText)
	cards = p.hooks.Apply(cards)

	summary := domain.Summarize(cards)
	log.InfoContext(ctx, "generation complete",
		"total", summary.Total,
		"image", summary.Image,
		"quiz", summary.Quiz,
		"flashcard", summary.Flashcard)

	return &Result{
		Cards:     cards,
		Summary:   summary,
		Target:    n,
		AllowText: allowText,
	}, nil
}
