package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/courtline/audittrail/pkg/audit"
	"github.com/courtline/audittrail/pkg/config"
	"github.com/courtline/audittrail/pkg/observability"
	"github.com/courtline/audittrail/pkg/storage"
)

func main() {
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
	logger.WithField("type", cfg.Storage.Type).Info("Audit storage initialized")

	history := audit.NewHistory(store, logger, metrics)
	handlers := audit.NewHandlers(history)

	router := mux.NewRouter()
	handlers.RegisterRoutes(router)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")
	if metrics != nil {
		router.Handle("/metrics", metrics.Handler()).Methods("GET")
	}

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return closeStore()
	})

	go func() {
		logger.Infof("Audit history API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if err := shutdown.WaitForShutdown(); err != nil {
		log.Fatalf("Shutdown failed: %v", err)
	}
}
