// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"event-ticket-ledger/internal/application"
	"event-ticket-ledger/internal/config"
	"event-ticket-ledger/internal/domain/model"
	"event-ticket-ledger/internal/infra/logging"
	"event-ticket-ledger/internal/infra/metrics"
	"event-ticket-ledger/internal/infra/sched"
	"event-ticket-ledger/internal/infra/web"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.StringP("config", "c", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, X-Account-ID header)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("event-ticket-ledger %s (%s) schema v%d\n", version, commit, model.SchemaVersion)
		return
	}

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit, model.SchemaVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, err := application.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("ledger startup failed")
	}
	defer ledger.Close()

	identity := web.NewIdentityManager(cfg.Auth.JWTSecret, cfg.Runtime.Dev && cfg.Auth.DevHeader)
	server := web.NewServer(ledger.UseCase, identity, ledger.Limiter, ledger.Health, cfg.HTTP, logger)
	sampler := sched.NewStatsSampler(cfg.Metrics.SampleInterval, ledger.UseCase, ledger.PoolStats, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.ListenAndServe(gctx) })
	g.Go(func() error { return sampler.Run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("shutdown with error")
		return
	}
	logger.Info().Msg("bye")
}
