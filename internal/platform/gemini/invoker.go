package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/loopmind-api/internal/config"
	"github.com/phrazzld/loopmind-api/internal/generation"
	"google.golang.org/genai"
)

// Invoker implements generation.Invoker using Gemini text generation.
type Invoker struct {
	models     contentGenerator
	model      string
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error

	mu  sync.Mutex
	rng *rand.Rand
}

var _ generation.Invoker = (*Invoker)(nil)

// NewInvoker creates an Invoker for cfg.ModelName. It fails with
// generation.ErrConfig when the API key or model name is missing.
func NewInvoker(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*Invoker, error) {
	if strings.TrimSpace(cfg.ModelName) == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrConfig)
	}
	models, err := newModels(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}
	return newInvoker(models, cfg, logger), nil
}

func newInvoker(models contentGenerator, cfg config.LLMConfig, logger *slog.Logger) *Invoker {
	return &Invoker{
		models:     models,
		model:      cfg.ModelName,
		maxRetries: max(cfg.MaxRetries, 0),
		baseDelay:  time.Duration(max(cfg.RetryDelaySeconds, 1)) * time.Second,
		logger:     componentLogger(logger, "gemini_invoker"),
		sleep:      sleepContext,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Invoke sends one prompt and returns the model's text. Transient transport
// failures (429, 5xx) are retried up to max_retries times inside this one
// call; the pipeline still counts it as a single generation call.
func (g *Invoker) Invoke(ctx context.Context, req generation.Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("%w: %w", generation.ErrInvocation, ErrEmptyPrompt)
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: req.MaxTokens,
	}

	for attempt := 0; ; attempt++ {
		g.logger.DebugContext(ctx, "making Gemini API call",
			"model", g.model,
			"attempt", attempt+1,
			"max_attempts", g.maxRetries+1)

		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), genCfg)
		if err == nil {
			if err := checkResponse(resp); err != nil {
				g.logger.WarnContext(ctx, "Gemini returned no usable content", "error", err)
				return "", err
			}
			return resp.Text(), nil
		}

		if !isTransient(err) || attempt >= g.maxRetries {
			g.logger.ErrorContext(ctx, "Gemini API call failed",
				"attempt", attempt+1,
				"error", err)
			return "", wrapCallError(err)
		}

		delay := g.backoff(attempt)
		g.logger.WarnContext(ctx, "retrying Gemini API call after delay",
			"attempt", attempt+1,
			"delay", delay.String(),
			"error", err)
		if err := g.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("%w: %v", generation.ErrInvocation, err)
		}
	}
}

// backoff returns baseDelay * 2^attempt scaled by a jitter factor in [0.5, 1).
func (g *Invoker) backoff(attempt int) time.Duration {
	g.mu.Lock()
	jitter := 0.5 + g.rng.Float64()*0.5
	g.mu.Unlock()
	return time.Duration(float64(g.baseDelay) * math.Pow(2, float64(attempt)) * jitter)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
