package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/courtline/audittrail/pkg/audit"
	"github.com/courtline/audittrail/pkg/config"
	"github.com/courtline/audittrail/pkg/observability"
	"github.com/courtline/audittrail/pkg/storage"
)

var (
	runOnce       = flag.Bool("run-once", false, "Run one policy sweep and exit")
	table         = flag.String("table", "", "Sweep a single table instead of the persisted policies. Requires --retention-days")
	retentionDays = flag.Int("retention-days", 0, "Retention window in days for --table")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	store, closeStore, err := storage.Open(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open audit storage: %v", err)
	}
	defer closeStore()

	retention := audit.NewRetention(store, logger, metrics)

	// Manual single-table mode (for backfills and incident response)
	if *table != "" {
		if *retentionDays <= 0 {
			log.Fatal("--table requires a positive --retention-days")
		}
		deleted := retention.Cleanup(context.Background(), *table, *retentionDays)
		logger.WithFields(map[string]interface{}{
			"table":   *table,
			"deleted": deleted,
		}).Info("Manual cleanup finished")
		return
	}

	if *runOnce {
		if err := sweep(retention, cfg.Retention, logger); err != nil {
			log.Fatalf("Sweep failed: %v", err)
		}
		return
	}

	// Scheduled mode
	c := cron.New()
	_, err = c.AddFunc(cfg.Retention.Schedule, func() {
		if err := sweep(retention, cfg.Retention, logger); err != nil {
			logger.WithError(err).Error("Scheduled sweep failed")
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule retention sweep: %v", err)
	}

	c.Start()
	logger.WithField("schedule", cfg.Retention.Schedule).Info("Retention sweeper started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down, waiting for running sweeps")
	<-c.Stop().Done()
}

func sweep(retention *audit.Retention, cfg config.RetentionConfig, logger *observability.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.SweepTimeout)
	defer cancel()

	deleted, err := retention.RunPolicies(ctx)
	if err != nil {
		return err
	}

	logger.WithField("deleted", deleted).Info("Retention sweep finished")
	return nil
}
