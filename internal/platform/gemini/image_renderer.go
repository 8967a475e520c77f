package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/loopmind-api/internal/config"
	"github.com/phrazzld/loopmind-api/internal/generation"
	"google.golang.org/genai"
)

const defaultImageMIMEType = "image/png"

// ImageRenderer synthesizes card images with a Gemini image model.
type ImageRenderer struct {
	models contentGenerator
	model  string
	logger *slog.Logger
}

// NewImageRenderer creates an ImageRenderer for cfg.ImageModelName.
func NewImageRenderer(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*ImageRenderer, error) {
	if strings.TrimSpace(cfg.ImageModelName) == "" {
		return nil, fmt.Errorf("%w: image model name cannot be empty", generation.ErrConfig)
	}
	models, err := newModels(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}
	return newImageRenderer(models, cfg.ImageModelName, logger), nil
}

func newImageRenderer(models contentGenerator, model string, logger *slog.Logger) *ImageRenderer {
	return &ImageRenderer{models: models, model: model, logger: componentLogger(logger, "gemini_image_renderer")}
}

// Render returns the first image the model produces for prompt and its MIME
// type. A quota rejection wraps generation.ErrRateLimited.
func (r *ImageRenderer) Render(ctx context.Context, prompt string) ([]byte, string, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, "", fmt.Errorf("%w: %w", generation.ErrInvocation, ErrEmptyPrompt)
	}

	resp, err := r.models.GenerateContent(ctx, r.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "Gemini image call failed", "error", err, "rate_limited", isRateLimited(err))
		return nil, "", wrapCallError(err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, "", err
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mimeType := part.InlineData.MIMEType
		if mimeType == "" {
			mimeType = defaultImageMIMEType
		}
		return part.InlineData.Data, mimeType, nil
	}
	return nil, "", fmt.Errorf("%w: %w: no image in response", generation.ErrInvocation, ErrEmptyResponse)
}
