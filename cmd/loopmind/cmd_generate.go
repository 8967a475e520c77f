package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/phrazzld/loopmind-api/internal/config"
	"github.com/phrazzld/loopmind-api/internal/domain"
	"github.com/phrazzld/loopmind-api/internal/generation"
	"github.com/phrazzld/loopmind-api/internal/platform/gemini"
	"github.com/spf13/cobra"
)

// newInvoker builds the model client. Tests replace it.
var newInvoker = func(ctx context.Context, cfg config.LLMConfig, l *slog.Logger) (generation.Invoker, error) {
	return gemini.NewInvoker(ctx, cfg, l)
}

type generateOptions struct {
	file   string
	title  string
	format string
	seed   int64
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate learning cards from a text file",
		Long: `Run the two-pass card generation pipeline and all guardrails against
the model and print the resulting cards with their post type summary.

Nothing is stored and no images are rendered. Use --file - to read stdin.
A fixed --seed reproduces the target card count. The post type mix is
chosen by the model and is not seeded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "path to the source text (- for stdin)")
	cmd.Flags().StringVar(&opts.title, "title", "", "topic title (derived from the text when empty)")
	cmd.Flags().StringVarP(&opts.format, "format", "o", formatJSON, "output format: json or yaml")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed for the card count jitter")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// generateOutput is what generate prints.
type generateOutput struct {
	Title   string             `json:"title"`
	Icon    string             `json:"icon"`
	Seed    int64              `json:"seed"`
	Target  int                `json:"target"`
	Cards   []*domain.Card     `json:"cards"`
	Summary domain.CardSummary `json:"summary"`
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	if err := checkFormat(opts.format); err != nil {
		return err
	}

	text, err := readSource(cmd.InOrStdin(), opts.file)
	if err != nil {
		return err
	}

	cfg, err := loadConfig("server", "llm", "generation")
	if err != nil {
		return err
	}
	l := commandLogger(cmd, cfg)

	seed := opts.seed
	if !cmd.Flags().Changed("seed") {
		seed = time.Now().UnixNano()
	}

	ctx := cmd.Context()

	invoker, err := newInvoker(ctx, cfg.LLM, l)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	pipeline, err := generation.NewPipeline(invoker, cfg.Generation, rand.New(rand.NewSource(seed)), l)
	if err != nil {
		return err
	}

	title := domain.DeriveTitle(opts.title, text)
	result, err := pipeline.Run(ctx, generation.Input{Title: title, Text: text})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	for i, c := range result.Cards {
		c.Order = i + 1
	}

	l.Debug("cards generated", "seed", seed, "total", result.Summary.Total)
	return writeOutput(cmd.OutOrStdout(), opts.format, generateOutput{
		Title:   title,
		Icon:    domain.PickIcon(title + "\n" + text),
		Seed:    seed,
		Target:  result.Target,
		Cards:   result.Cards,
		Summary: result.Summary,
	})
}

func readSource(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read source text: %w", err)
	}
	return string(data), nil
}
