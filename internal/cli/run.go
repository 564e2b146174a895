package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pagemend/pagemend/internal/cache"
	"github.com/pagemend/pagemend/internal/cms"
	"github.com/pagemend/pagemend/internal/factcheck"
	"github.com/pagemend/pagemend/internal/fetch"
	"github.com/pagemend/pagemend/internal/llm"
	"github.com/pagemend/pagemend/internal/logger"
	"github.com/pagemend/pagemend/internal/quality"
	"github.com/pagemend/pagemend/internal/quota"
	"github.com/pagemend/pagemend/internal/scheduler"
	"github.com/pagemend/pagemend/internal/search"
	"github.com/pagemend/pagemend/internal/sitemap"
	"github.com/pagemend/pagemend/internal/staleness"
	"github.com/pagemend/pagemend/internal/store"
	"github.com/pagemend/pagemend/internal/worker"
)

var pinURLs []string

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the maintenance scheduler until interrupted",
	Long: `Run starts the continuous maintenance loop for the configured site:
discover pages, score staleness and quality, rewrite the worst pages
through the configured AI provider, and publish refreshes to the CMS.

The loop runs until SIGINT/SIGTERM.

Example:
  pagemend run
  pagemend run --pin https://example.com/posts/pricing --pin https://example.com/posts/faq`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArrayVar(&pinURLs, "pin", nil, "pin a target URL for priority processing (repeatable, processed in given order)")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.New("pagemend")

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("find home directory: %w", err)
	}
	stateDir := cfg.Store.Dir
	if stateDir == "" {
		stateDir = filepath.Join(home, ".pagemend", "state")
	}
	cacheDir := cfg.Cache.Dir
	if cacheDir == "" {
		cacheDir = filepath.Join(home, ".pagemend", "cache")
	}

	st := store.NewFileStore(stateDir)
	tracker := quota.New(st, cfg.Quota.DailyLimit, cfg.Quota.SafetyBuffer, log)

	var validationCache cache.Cache
	if cfg.Cache.Enabled {
		validationCache = cache.NewLayered(cfg.Cache.MemoryTTL, cacheDir, cfg.Cache.ValidationTTL)
	}

	var searcher factcheck.Searcher
	if client := search.New(cfg.Search.APIKey, cfg.Search.EngineID, cfg.Search.BaseURL,
		cfg.Search.Results, cfg.Search.Timeout, cfg.HTTP.UserAgent); client != nil {
		searcher = client
	} else {
		log.Warn("no search API key configured, claim verification disabled")
	}

	facts := factcheck.New(searcher, tracker, validationCache, cfg.Cache.ValidationTTL, log)
	evaluator := quality.New(quality.NewHeuristicScorer(), facts, staleness.New(), log)

	generator, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return fmt.Errorf("configure generator: %w", err)
	}

	limiter := worker.NewLimiter(1, 3)
	limiter.SetRate("cms", 0.5, 1)

	deps := scheduler.Deps{
		Fetcher:    fetch.New(cfg.HTTP, log),
		Publisher:  cms.New(cfg.CMS, log),
		Discoverer: sitemap.New(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, log),
		Evaluator:  evaluator,
		Quota:      tracker,
		Store:      st,
		Limiter:    limiter,
		Log:        log,
	}
	if generator != nil {
		deps.Generator = generator
	}

	sched := scheduler.New(cfg, deps)
	if len(pinURLs) > 0 {
		if err := sched.SetPinned(pinURLs); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		sched.Stop()
	}()

	return sched.Run(ctx)
}
