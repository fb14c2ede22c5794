package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"arbdash/internal/adapters"
	"arbdash/internal/amqp"
	"arbdash/internal/backend"
	"arbdash/internal/cache"
	"arbdash/internal/cli"
	apphttp "arbdash/internal/http"
	"arbdash/internal/ingest"
	"arbdash/internal/log"
	"arbdash/internal/services"
	"arbdash/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", "timezone", cfg.Timezone, log.FieldError, err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldBackend, cfg.DataBackend, log.FieldError, err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	configs := adapters.NewConfigRepository(res.Store)
	orch := ingest.NewOrchestrator(res.Fetcher, configs, ingest.Options{
		UserID:       cfg.DefaultUserID,
		Location:     loc,
		StrictHeader: cfg.StrictHeader,
		Logger:       logger,
		Metrics:      ingest.NewMetrics(reg),
	})

	var amqpClient *amqp.Client
	sessionOpts := ingest.SessionOptions{KeepStaleOnError: cfg.KeepStaleOnError, Logger: logger}
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		sessionOpts.OnSync = worker.PublishSyncEvents(amqpClient, logger)
	}
	session := ingest.NewSession(orch, sessionOpts)

	expenses := services.NewExpenseService(adapters.NewExpenseRepository(res.Store), cfg.DefaultUserID, logger)
	settings := services.NewSettingsService(configs, session, loc, logger)

	janitor := cache.NewJanitor(logger)
	var reads ingest.Ingester = orch
	if cfg.CacheTTL > 0 {
		batches := cache.NewLRU[*ingest.Batch](cfg.CacheSize, cfg.CacheTTL)
		cached := ingest.NewCachingIngester(orch, batches)
		settings.OnChange(cached.Invalidate)
		janitor.Register(batches)
		janitor.Start(cfg.CacheTTL)
		reads = cached
	}
	dashboard := services.NewDashboardService(configs, reads, session, expenses, loc, logger)

	syncWorker := worker.NewSyncWorker(session, configs, loc, logger)
	scheduler := worker.NewScheduler(loc, logger)
	if cfg.SyncSchedule != "" {
		if err := scheduler.Add("sync-current-month", cfg.SyncSchedule, syncWorker.SyncCurrentMonth); err != nil {
			logger.Error("Invalid sync schedule", "schedule", cfg.SyncSchedule, log.FieldError, err)
			os.Exit(1)
		}
		scheduler.Start()
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Settings:  settings,
		Dashboard: dashboard,
		Expenses:  expenses,
		Ready:     res.Ping,
		Registry:  reg,
		Logger:    logger,
		Location:  loc,
		RateLimit: cfg.RateLimitPerMinute,
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		scheduler.Stop()
		janitor.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Warn("Backend cleanup error", log.FieldError, err)
			}
		}
	})

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeSyncRequests(ctx, syncWorker.HandleSyncRequest)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Sync request consumption stopped", log.FieldError, err)
			}
		}()
	}

	logger.Info("Starting arbdash server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"fetch_mode", cfg.SheetsFetchMode,
		"timezone", loc.String(),
		"amqp", amqpClient != nil,
		"scheduled_jobs", scheduler.Len())

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown, "at", time.Now().In(loc).Format(time.RFC3339))
}
