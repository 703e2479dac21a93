package notify

import (
	"fmt"
	"log/slog"

	"spendwise/internal/config"
)

// New builds the notifier selected by cfg.Notifier, wrapped with retries.
// publisher is required only for the amqp channel.
func New(cfg *config.Config, publisher Publisher, logger *slog.Logger) (Notifier, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var base Notifier
	switch cfg.Notifier {
	case config.NotifierLog, "":
		base = NewLogNotifier(logger)
	case config.NotifierSMTP:
		smtp, err := NewSMTPNotifierFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		base = smtp
	case config.NotifierAMQP:
		if publisher == nil {
			return nil, fmt.Errorf("amqp notifier requires a broker connection")
		}
		base = NewQueueNotifier(publisher)
	default:
		return nil, fmt.Errorf("unsupported notifier: %s", cfg.Notifier)
	}

	logger.Info("Initialized notifier",
		"component", "notify",
		"notifier", base.Name(),
		"timeout", cfg.NotifyTimeout,
		"max_retries", cfg.NotifyMaxRetries)

	return NewRetrying(base, cfg.NotifyTimeout, cfg.NotifyMaxRetries, logger), nil
}

// NewSMTPNotifierFromConfig reads the relay settings from cfg.
func NewSMTPNotifierFromConfig(cfg *config.Config) (*SMTPNotifier, error) {
	return NewSMTPNotifier(SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		Timeout:  cfg.NotifyTimeout,
	})
}
