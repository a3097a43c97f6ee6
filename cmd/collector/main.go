package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/navid-fn/deribit-collector/configs"
	"github.com/navid-fn/deribit-collector/internal/collector"
	"github.com/navid-fn/deribit-collector/internal/crawler"
	"github.com/navid-fn/deribit-collector/internal/drivers/deribit"
	"github.com/navid-fn/deribit-collector/internal/faulttolerance"
	"github.com/navid-fn/deribit-collector/internal/sender"
	"github.com/navid-fn/deribit-collector/internal/storage"
	"github.com/sirupsen/logrus"
)

func main() {
	var (
		schedule   bool
		instrument string
		depth      int
	)

	flag.BoolVar(&schedule, "schedule", false, "Collect every COLLECT_INTERVAL until COLLECT_DURATION elapses instead of a single cycle")
	flag.StringVar(&instrument, "instrument", "", "Instrument to collect, overrides INSTRUMENT (e.g. ETH-PERPETUAL)")
	flag.IntVar(&depth, "depth", 0, "Order book depth per side, overrides ORDERBOOK_DEPTH")
	flag.Parse()

	cfg := configs.Load()
	applyOverrides(cfg, instrument, depth)

	logger := crawler.NewLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	snd, err := sender.New(cfg.Kafka, logger)
	if err != nil {
		logger.Fatalf("Failed to create sender: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, schedule, snd, logger)
	stop()

	// Flush queued records before any exit path.
	snd.Close()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Received shutdown signal, stopped data collection")
			return
		}
		logger.Fatalf("Data collection failed: %v", err)
	}
}

// applyOverrides copies non-zero flag values over the loaded configuration.
func applyOverrides(cfg *configs.AppConfig, instrument string, depth int) {
	if instrument != "" {
		cfg.Collector.Instrument = instrument
	}
	if depth > 0 {
		cfg.Collector.Depth = depth
	}
}

// run performs one cycle, or the scheduled loop when schedule is set.
// It returns every failure so the caller can release snd first.
func run(ctx context.Context, cfg *configs.AppConfig, schedule bool, snd sender.Sender, logger *logrus.Logger) error {
	layout := storage.NewLayout(cfg.Storage.BaseDir)
	if err := layout.Ensure(); err != nil {
		return fmt.Errorf("failed to prepare data directories: %w", err)
	}

	client, err := deribit.NewClient(cfg.Deribit, logger)
	if err != nil {
		return fmt.Errorf("failed to create Deribit client: %w", err)
	}
	defer client.Close()

	c := collector.New(cfg.Collector, client, layout, snd, logger)

	if !schedule {
		_, err := c.RunCycle(ctx)
		return err
	}

	policy := faulttolerance.NewRecoveryPolicy(faulttolerance.RecoveryConfig{
		BaseDelay:  cfg.Collector.RecoveryDelay,
		MaxDelay:   cfg.Collector.RecoveryMaxDelay,
		Multiplier: cfg.Collector.RecoveryMultiplier,
	})
	return collector.NewScheduler(c, cfg.Collector, policy, logger).Run(ctx)
}
