package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spendwise/internal/amqp"
	"spendwise/internal/auth"
	"spendwise/internal/cache"
	"spendwise/internal/cli"
	apphttp "spendwise/internal/http"
	"spendwise/internal/log"
	"spendwise/internal/notify"
	"spendwise/internal/services"
)

const (
	analyticsCacheUsers = 1000
	analyticsCacheTTL   = 5 * time.Minute
	cacheSweepInterval  = time.Minute
	shutdownTimeout     = 15 * time.Second
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig()
	logger.Info("Starting SpendWise API", "app_env", cfg.AppEnv, "port", cfg.Port)

	repo := cli.InitSQLite(logger, cfg)
	defer repo.Close()

	// Broker is optional for the API: without it expenses stay pending for
	// export and reminders must use a direct notifier.
	var (
		broker    *amqp.Client
		publisher services.ExpensePublisher
		reminders notify.Publisher
	)
	if cfg.AMQPURL != "" {
		var err error
		broker, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, amqp.Queues{
			Reminders: cfg.AMQPReminderQueue,
			Expenses:  cfg.AMQPExpenseQueue,
		})
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer broker.Close()
		publisher, reminders = broker, broker
		logger.Info("AMQP connected", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	analyticsSvc := services.NewAnalyticsService(repo, analyticsCacheUsers, analyticsCacheTTL)
	ledgerSvc := services.NewLedgerService(repo, publisher, analyticsSvc, logger)

	cacheManager := cache.NewManager(logger)
	cacheManager.Register(analyticsSvc.Caches()...)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:              ":" + cfg.Port,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimitPerMin:   cfg.RateLimitPerMin,
		Logger:            logger,
	}, apphttp.Deps{
		Auth:      services.NewAuthService(repo, issuer),
		Ledger:    ledgerSvc,
		Analytics: analyticsSvc,
		Chat:      services.NewChatResolver(repo),
		DB:        repo,
		Issuer:    issuer,
	})

	var scheduler *services.ReminderScheduler
	if cfg.ReminderEmbedded {
		notifier, err := notify.New(cfg, reminders, logger.Logger)
		if err != nil {
			logger.Error("Failed to initialize notifier", log.FieldError, err)
			os.Exit(1)
		}
		processor := services.NewReminderProcessor(repo, notifier, logger)
		scheduler = services.NewReminderScheduler(processor, cfg.ReminderSchedule)
	}

	var syncProcessor *services.SyncProcessor
	if broker != nil {
		syncProcessor = services.NewSyncProcessor(repo, broker, services.DefaultSyncProcessorConfig())
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	cacheManager.StartCleanup(cacheSweepInterval)

	if scheduler != nil {
		if err := scheduler.Start(gctx); err != nil {
			logger.Error("Failed to start reminder scheduler", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Reminder scheduler started", "schedule", cfg.ReminderSchedule)
	}
	if syncProcessor != nil {
		if err := syncProcessor.Start(gctx); err != nil {
			logger.Error("Failed to start sync processor", log.FieldError, err)
			os.Exit(1)
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down SpendWise API")
		return cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) error {
			var errs []error
			errs = append(errs, srv.Shutdown(ctx))
			if scheduler != nil {
				errs = append(errs, scheduler.Stop(ctx))
			}
			if syncProcessor != nil {
				errs = append(errs, syncProcessor.Stop(ctx))
			}
			cacheManager.Stop()
			return errors.Join(errs...)
		})
	})

	if err := g.Wait(); err != nil {
		logger.Error("SpendWise API stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("SpendWise API stopped")
}
