package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hyeonkim/devfeed_bot/internal/app"
	"github.com/hyeonkim/devfeed_bot/internal/config"
	"github.com/hyeonkim/devfeed_bot/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("feedbot", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	once := fs.Bool("once", false, "Run every configured source once and exit")
	resend := fs.Bool("resend", false, "Bypass same-day dedup for this run (re-send everything admitted)")
	dryRun := fs.Bool("dry-run", false, "Log deliveries instead of sending them")
	days := fs.Int("days", 0, "Lookback window in days (1 = today only); 0 keeps the configured value")
	batchSize := fs.Int("batch-size", 0, "Sources per concurrent batch; 0 keeps the configured value")
	sourceID := fs.String("source", "", "Run only this source id, as a manual run")
	envFile := fs.String("env", ".env", "Path to the optional env file")
	sourcesPath := fs.String("sources", "configs/sources.yaml", "Path to the sources YAML file")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	env, err := config.LoadEnv(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(env.Environment, env.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	application, err := app.New(env, app.Options{
		Once:        *once,
		Resend:      *resend,
		DryRun:      *dryRun,
		Days:        *days,
		BatchSize:   *batchSize,
		SourceID:    *sourceID,
		SourcesPath: *sourcesPath,
	}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("startup failed")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("run failed")
		return 1
	}
	return 0
}
