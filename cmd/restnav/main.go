package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/V4T54L/restnav/internal/adapter/api"
	"github.com/V4T54L/restnav/internal/adapter/api/handler"
	"github.com/V4T54L/restnav/internal/adapter/api/middleware"
	"github.com/V4T54L/restnav/internal/adapter/metrics"
	"github.com/V4T54L/restnav/internal/adapter/pii"
	"github.com/V4T54L/restnav/internal/adapter/repository/journal"
	redisrepo "github.com/V4T54L/restnav/internal/adapter/repository/redis"
	"github.com/V4T54L/restnav/internal/adapter/tracing"
	"github.com/V4T54L/restnav/internal/adapter/transport"
	"github.com/V4T54L/restnav/internal/adapter/view"
	"github.com/V4T54L/restnav/internal/domain"
	"github.com/V4T54L/restnav/internal/pkg/config"
	"github.com/V4T54L/restnav/internal/pkg/logger"
	"github.com/V4T54L/restnav/internal/usecase"
)

func main() {
	startPath := flag.String("url", "", "start link, absolute or relative to API_BASE_URL")
	method := flag.String("method", domain.MethodGet, "HTTP method of the start link")
	subType := flag.String("subtype", domain.SubTypeJSON, "representation subtype to request")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: cfg.OTelServiceName,
		Insecure:    cfg.OTelInsecure,
	}, logger)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewClientMetrics(reg)

	// --- Archive Journal ---
	journalRepo, err := journal.NewJournalRepository(cfg.JournalDir, cfg.JournalSegmentSize, cfg.JournalMaxDiskSize, logger)
	if err != nil {
		logger.Error("failed to initialize journal", "error", err)
		os.Exit(1)
	}
	defer journalRepo.Close()

	redactor := pii.NewRedactor(cfg.RedactionFieldList(), logger)
	archive := usecase.NewArchiveUseCase(journalRepo, redactor, m, logger,
		cfg.ArchiveBatchSize, cfg.ArchiveRetryCount, cfg.ArchiveRetryBackoff)

	sseBroker := handler.NewSSEBroker(ctx, logger)
	observers := domain.StatusObservers{m, sseBroker, archive}

	var publisher *redisrepo.StatusPublisher
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("could not connect to redis, status stream starts unavailable", "error", err)
		}
		publisher = redisrepo.NewStatusPublisher(redisClient, logger, m, cfg.RedisStatusStream, cfg.RedisStreamMaxLen, cfg.DispatchQueueSize)
		observers = append(observers, publisher)
	}

	// --- Client Core ---
	store := usecase.NewEventStore(observers, logger)
	views := view.NewConsoleViewOpener(os.Stdout, store, logger)
	dispatcher := usecase.NewDispatcher(cfg.DispatchQueueSize, logger)

	httpTransport := transport.NewHTTPTransport(&http.Client{}, cfg.RequestsPerSecond, cfg.RequestBurst, logger)
	processor := usecase.NewRequestProcessor(ctx, store, httpTransport, dispatcher, m, cfg.RequestTimeout, logger)
	proxy := usecase.NewResourceProxy(store, processor, views, m, logger)
	logView := usecase.NewLogViewUseCase(store, dispatcher, logger)

	// --- Admin Server ---
	adminServer := &http.Server{
		Addr:         cfg.AdminAddr,
		Handler:      middleware.Logging(logger)(api.NewRouter(logView, sseBroker, reg, logger)),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 0, // event stream stays open
		IdleTimeout:  15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return dispatcher.Run(gctx) })
	g.Go(func() error { return archive.Run(gctx, cfg.ArchiveFlushInterval) })
	if publisher != nil {
		g.Go(func() error { return publisher.Run(gctx) })
		g.Go(func() error { return publisher.StartHealthCheck(gctx, 5*time.Second) })
	}
	g.Go(func() error {
		logger.Info("starting admin server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return adminServer.Shutdown(shutdownCtx)
	})

	if *startPath != "" {
		start := domain.Link{Rel: string(domain.RelSelf), Href: resolve(cfg.APIBaseURL, *startPath), Method: *method}
		logger.Info("fetching start link", "url", start.Href, "subtype", *subType)
		dispatcher.Post(func() { proxy.Fetch(start, nil, *subType, true) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("client stopped with error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown failed", "error", err)
	}
	logger.Info("client shut down gracefully", "entries", store.Len())
}

// resolve joins a relative start path onto the API base URL.
func resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
