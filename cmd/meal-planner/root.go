package main

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"meal-planner/internal/app"
	"meal-planner/internal/clipper"
	"meal-planner/internal/config"
	"meal-planner/internal/database"
	"meal-planner/internal/ghost"
	"meal-planner/internal/llm"
	"meal-planner/internal/logging"
	"meal-planner/internal/planner"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meal-planner",
		Short: "Weekly household menu planner",
		Long: `meal-planner builds a weekly menu of lunches and dinners from a recipe
catalog, avoiding recent repeats and balancing food groups, and derives the
matching shopping list.`,
		Version:      version,
		SilenceUsage: true,
	}

	logLevel := cmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
	var flush func()
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := *logLevel
		if level == "" {
			cfg, err := config.NewFromEnv()
			if err == nil {
				level = cfg.LogLevel
			}
		}
		_, flush = logging.New(level)
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if flush != nil {
			flush()
		}
	}

	cmd.AddCommand(newGenerateCommand())
	cmd.AddCommand(newShoppingListCommand())
	cmd.AddCommand(newRecipesCommand())
	cmd.AddCommand(newHistoryCommand())
	cmd.AddCommand(newIngestCommand())
	cmd.AddCommand(newClipCommand())
	cmd.AddCommand(newPublishCommand())
	cmd.AddCommand(newMetricsCleanupCommand())

	return cmd
}

// env is what a command needs to run against the application.
type env struct {
	cfg *config.Config
	app *app.App

	closers []func() error
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i]()
	}
}

type envOptions struct {
	// seed makes menu generation reproducible when set.
	seed *uint64
	// withLLM creates a Gemini client for the clipper when a key is set.
	withLLM bool
}

func newEnv(ctx context.Context, opts envOptions) (*env, error) {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	e := &env{cfg: cfg, closers: []func() error{db.Close}}

	var src planner.RandomSource
	if opts.seed != nil {
		src = rand.New(rand.NewPCG(*opts.seed, *opts.seed))
	}

	var ghostClient ghost.Client
	if cfg.GhostURL != "" {
		ghostClient = ghost.NewClient(cfg)
	}

	var textGen llm.TextGenerator
	if opts.withLLM && cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.closers = append(e.closers, gemini.Close)
		textGen = gemini
	}

	e.app = app.NewApp(cfg, db, planner.NewEngine(src), ghostClient, clipper.NewClipper(textGen))
	return e, nil
}
