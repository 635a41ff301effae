package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"mediscript/internal/cli"
	"mediscript/internal/config"
	"mediscript/internal/domain/services"
	"mediscript/internal/repository"
	"mediscript/internal/service/ingest"
	"mediscript/internal/service/recognition"
	recordsvc "mediscript/internal/service/record"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Logs go to stderr so command output stays clean.
	logger, closeLog, err := config.NewLogger(cfg, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := repository.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	archive, err := repository.OpenArchive(ctx, cfg, logger)
	if err != nil {
		return err
	}

	recognizer, err := recognition.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}

	cli.Configure(cli.Deps{
		NewIngest: func(policy services.BatchPolicy) services.IngestService {
			if policy == "" {
				policy = services.BatchPolicy(cfg.BatchPolicy)
			}
			var opts []ingest.Option
			if archive != nil {
				opts = append(opts, ingest.WithArchive(archive))
			}
			return ingest.NewOrchestrator(recognizer, store, policy, logger, opts...)
		},
		Review:      recordsvc.NewReviewService(store, logger),
		Environment: cfg.Environment,
	})

	return cli.Execute(ctx)
}
