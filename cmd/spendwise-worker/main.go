package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spendwise/internal/amqp"
	"spendwise/internal/backend"
	"spendwise/internal/cli"
	"spendwise/internal/config"
	"spendwise/internal/log"
	"spendwise/internal/notify"
	"spendwise/internal/services"
	"spendwise/internal/worker"
)

const (
	syncBatchSize   = 20
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig()
	logger = logger.WithComponent(log.ComponentWorker)
	logger.Info("Starting spendwise-worker")

	if cfg.AMQPURL == "" {
		logger.Error("spendwise-worker requires AMQP_URL")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg)
	defer repo.Close()

	ctx, stop := cli.SignalContext()
	defer stop()

	writer, err := backend.NewFactory(logger.Logger).ExpenseWriter(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize export backend", log.FieldError, err)
		os.Exit(1)
	}

	broker, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, amqp.Queues{
		Reminders: cfg.AMQPReminderQueue,
		Expenses:  cfg.AMQPExpenseQueue,
	})
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	notifier, err := notify.New(deliveryConfig(cfg, logger), nil, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize notifier", log.FieldError, err)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(repo, writer, syncBatchSize)
	reminderWorker := worker.NewReminderWorker(notifier)

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx, services.DefaultSyncProcessorConfig().MaxRetries); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming expense exports", log.FieldQueue, cfg.AMQPExpenseQueue)
		return ignoreCanceled(broker.ConsumeExpenseSync(gctx, syncWorker.HandleSyncMessage))
	})
	g.Go(func() error {
		logger.Info("Consuming bill reminders", log.FieldQueue, cfg.AMQPReminderQueue)
		return ignoreCanceled(broker.ConsumeBillReminders(gctx, reminderWorker.HandleReminderMessage))
	})

	err = g.Wait()
	_ = cli.GracefulShutdown(logger, shutdownTimeout, func(context.Context) error {
		return broker.Close()
	})
	if err != nil {
		logger.Error("spendwise-worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("spendwise-worker stopped")
}

// deliveryConfig keeps the worker from publishing reminders back onto the
// queue it consumes: the amqp notifier is replaced by SMTP, or by the log
// notifier when SMTP is not configured.
func deliveryConfig(cfg *config.Config, logger *log.Logger) *config.Config {
	if cfg.Notifier != config.NotifierAMQP {
		return cfg
	}
	c := *cfg
	c.Notifier = config.NotifierLog
	if c.SMTPUsername != "" && c.SMTPPassword != "" {
		c.Notifier = config.NotifierSMTP
	}
	logger.Info("Worker delivers reminders directly", log.FieldNotifier, c.Notifier)
	return &c
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
