package main

import (
	"context"
	"errors"
	"os"
	"time"

	"spendwise/internal/amqp"
	"spendwise/internal/cli"
	"spendwise/internal/log"
	"spendwise/internal/notify"
	"spendwise/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, logger := cli.LoadAndValidateConfig()
	logger = logger.WithComponent(log.ComponentReminder)
	logger.Info("Starting reminder-worker", "schedule", cfg.ReminderSchedule)

	repo := cli.InitSQLite(logger, cfg)
	defer repo.Close()

	// With the amqp notifier the reminders are handed to spendwise-worker.
	var publisher notify.Publisher
	if cfg.AMQPURL != "" {
		broker, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, amqp.Queues{
			Reminders: cfg.AMQPReminderQueue,
			Expenses:  cfg.AMQPExpenseQueue,
		})
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, using direct delivery only", log.FieldError, err)
		} else {
			defer broker.Close()
			publisher = broker
		}
	}

	notifier, err := notify.New(cfg, publisher, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize notifier", log.FieldError, err)
		os.Exit(1)
	}

	processor := services.NewReminderProcessor(repo, notifier, logger)
	scheduler := services.NewReminderScheduler(processor, cfg.ReminderSchedule)

	ctx, stop := cli.SignalContext()
	defer stop()

	// Start scans once right away, catching reminders missed while down.
	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start reminder scheduler", log.FieldError, err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Shutting down reminder-worker")

	err = cli.GracefulShutdown(logger, shutdownTimeout, scheduler.Stop)
	if err != nil && !errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
}
