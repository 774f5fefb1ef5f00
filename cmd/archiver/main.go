package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/V4T54L/restnav/internal/adapter/metrics"
	"github.com/V4T54L/restnav/internal/adapter/repository/journal"
	"github.com/V4T54L/restnav/internal/adapter/repository/postgres"
	"github.com/V4T54L/restnav/internal/pkg/config"
	"github.com/V4T54L/restnav/internal/pkg/logger"
	"github.com/V4T54L/restnav/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("starting archiver")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	log.Info("connected to postgres")

	archiveRepo := postgres.NewArchiveRepository(db, log)
	if err := archiveRepo.EnsureSchema(ctx); err != nil {
		log.Error("failed to create archive schema", "error", err)
		os.Exit(1)
	}

	journalRepo, err := journal.NewJournalRepository(cfg.JournalDir, cfg.JournalSegmentSize, cfg.JournalMaxDiskSize, log)
	if err != nil {
		log.Error("failed to open journal", "error", err)
		os.Exit(1)
	}
	defer journalRepo.Close()

	reg := prometheus.NewRegistry()
	m := metrics.NewClientMetrics(reg)
	drain := usecase.NewDrainJournalUseCase(journalRepo, archiveRepo, m, log, cfg.ArchiveRetryCount, cfg.ArchiveRetryBackoff)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{Addr: cfg.AdminAddr, Handler: metricsMux}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return drain.Run(gctx, cfg.ArchiveFlushInterval) })
	g.Go(func() error {
		log.Info("starting metrics server", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("archiver stopped with error", "error", err)
	}
	log.Info("archiver shut down gracefully")
}
