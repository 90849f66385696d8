// Package app assembles configuration, sources, dispatchers and the
// orchestrator into a runnable process.
package app

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyeonkim/devfeed_bot/internal/config"
	"github.com/hyeonkim/devfeed_bot/internal/dedup"
	"github.com/hyeonkim/devfeed_bot/internal/dispatch"
	"github.com/hyeonkim/devfeed_bot/internal/feed"
	"github.com/hyeonkim/devfeed_bot/internal/messenger"
	"github.com/hyeonkim/devfeed_bot/internal/render"
	"github.com/hyeonkim/devfeed_bot/internal/schedule"
	"github.com/hyeonkim/devfeed_bot/internal/score"
)

// Options collects the CLI-level inputs the core must honor.
type Options struct {
	Once        bool   // run every source once and exit
	Resend      bool   // per-run dedup bypass (operational re-send)
	DryRun      bool   // simulate delivery
	Days        int    // lookback override; 0 keeps the env value
	BatchSize   int    // orchestrator override; 0 keeps the env value
	SourceID    string // run only this source, as a manual run
	SourcesPath string
}

// App owns the wired dispatchers for one process lifetime.
type App struct {
	env          config.Env
	dispatchers  []*dispatch.Dispatcher
	orchestrator *dispatch.Orchestrator
	opts         Options
	log          zerolog.Logger
}

// New validates configuration, builds one dispatcher per active source
// and wires the orchestrator. Broken source records are excluded with an
// error log; an empty active set is fatal.
func New(env config.Env, opts Options, log zerolog.Logger) (*App, error) {
	if opts.Days != 0 {
		if err := config.ValidateLookback(opts.Days); err != nil {
			return nil, err
		}
		env.LookbackDays = opts.Days
	}
	if opts.BatchSize != 0 {
		if opts.BatchSize < 1 {
			return nil, fmt.Errorf("batch size must be >= 1, got %d", opts.BatchSize)
		}
		env.BatchSize = opts.BatchSize
	}
	if opts.DryRun {
		env.DryRun = true
	}
	// Checked here rather than in config validation: dry-run may arrive as
	// a flag, and a dry run needs no webhook at all.
	if !env.DryRun && strings.TrimSpace(env.WebhookURL) == "" {
		return nil, fmt.Errorf("WEBHOOK_URL is required unless dry-run is enabled")
	}

	cacheMode, err := dedup.ParseMode(env.CacheMode)
	if err != nil {
		return nil, err
	}

	sourcesFile, err := config.LoadSources(opts.SourcesPath)
	if err != nil {
		return nil, err
	}
	active, rejected := sourcesFile.Validate()
	for _, bad := range rejected {
		log.Error().Err(bad.Err).Str("source", bad.ID).Msg("source excluded by config validation")
	}
	if len(active) == 0 {
		return nil, fmt.Errorf("no valid sources configured")
	}

	// One HTTP client shared by every source fetch; the channel keeps its
	// own client with delivery-appropriate timeouts.
	httpClient := &http.Client{Timeout: 15 * time.Second}

	var channel messenger.Channel
	if env.DryRun {
		channel = messenger.NewDryRun(log.With().Str("component", "messenger").Logger())
	} else {
		channel = messenger.NewWebhook(env.WebhookURL, nil, log.With().Str("component", "messenger").Logger())
	}

	scorer := score.Default()

	dispatchers := make([]*dispatch.Dispatcher, 0, len(active))
	for _, src := range active {
		srcLog := log.With().Str("source", src.ID).Logger()

		var source feed.Source
		switch src.Kind {
		case config.KindScrape:
			source = feed.NewScrape(src, httpClient, srcLog)
		default:
			source = feed.NewRSS(src, httpClient, srcLog)
		}

		// One cache per source: no cross-source locking, and a source's
		// state file never grows with another source's identifiers.
		cache := dedup.New(cacheMode, filepath.Join(env.StateDir, src.ID+".json"), nil, srcLog)

		lookback := env.LookbackDays
		if src.LookbackDays != 0 {
			lookback = src.LookbackDays
		}

		var srcScorer *score.Scorer
		if src.ScoringEnabled() {
			srcScorer = scorer
		}

		dispatchers = append(dispatchers, dispatch.New(dispatch.Deps{
			Source:       source,
			Scorer:       srcScorer,
			Lenient:      src.Lenient,
			Cache:        cache,
			Channel:      channel,
			Render:       render.Message,
			LookbackDays: lookback,
			Log:          srcLog,
		}))
	}

	orchestrator := dispatch.NewOrchestrator(
		dispatchers,
		env.BatchSize,
		env.SourceTimeout,
		log.With().Str("component", "orchestrator").Logger(),
	)

	return &App{
		env:          env,
		dispatchers:  dispatchers,
		orchestrator: orchestrator,
		opts:         opts,
		log:          log,
	}, nil
}

// Run executes the selected mode: a single named source, one pass over
// everything, or the cron schedule.
func (a *App) Run(ctx context.Context) error {
	if a.opts.SourceID != "" {
		return a.runSingle(ctx)
	}
	if a.opts.Once {
		a.orchestrator.RunAll(ctx, a.opts.Resend)
		return nil
	}
	return a.runScheduled(ctx)
}

// runSingle runs one source as a manual trigger: it waits for any
// in-flight run instead of being skipped.
func (a *App) runSingle(ctx context.Context) error {
	for _, d := range a.dispatchers {
		if d.Name() != a.opts.SourceID {
			continue
		}
		_, err := d.RunOnce(ctx, dispatch.TriggerManual, a.opts.Resend)
		return err
	}
	return fmt.Errorf("no such source %q", a.opts.SourceID)
}

func (a *App) runScheduled(ctx context.Context) error {
	sched := schedule.New(feed.Seoul, a.log.With().Str("component", "schedule").Logger())

	// Budget the whole pass generously; individual sources are bounded by
	// the orchestrator's own per-source timeout.
	passTimeout := a.env.SourceTimeout * time.Duration(len(a.dispatchers)+1)
	err := sched.Add("poll", a.env.Schedule, passTimeout, func(ctx context.Context) error {
		a.orchestrator.RunAll(ctx, false)
		return nil
	})
	if err != nil {
		return err
	}

	a.log.Info().Str("schedule", a.env.Schedule).Int("sources", len(a.dispatchers)).Msg("scheduler started")
	sched.Run(ctx)
	return nil
}
