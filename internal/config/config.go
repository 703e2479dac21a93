package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	NotifierLog  = "log"
	NotifierSMTP = "smtp"
	NotifierAMQP = "amqp"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	// HTTP Server
	Port              string
	CORSAllowedOrigin string
	RateLimitPerMin   int

	// Runtime
	AppEnv    string
	LogLevel  string
	LogFormat string

	// Database
	SQLiteDBPath string
	DBReset      bool

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// AMQP
	AMQPURL           string
	AMQPExchange      string
	AMQPReminderQueue string
	AMQPExpenseQueue  string

	// Notifications
	Notifier         string
	NotifyTimeout    time.Duration
	NotifyMaxRetries int

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// Reminders
	ReminderSchedule string
	ReminderEmbedded bool

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

func Load() *Config {
	cfg := &Config{
		Port:              getEnv("PORT", "8000"),
		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		AppEnv:    getEnv("APP_ENV", EnvProduction),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/spendwise.db"),
		DBReset:      getEnvBool("DB_RESET", false),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 24*time.Hour),

		AMQPURL:           getEnv("AMQP_URL", ""),
		AMQPExchange:      getEnv("AMQP_EXCHANGE", "spendwise"),
		AMQPReminderQueue: getEnv("AMQP_REMINDER_QUEUE", "bill_reminders"),
		AMQPExpenseQueue:  getEnv("AMQP_EXPENSE_QUEUE", "expense_sync"),

		Notifier:         getEnv("NOTIFIER", NotifierLog),
		NotifyTimeout:    getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second),
		NotifyMaxRetries: getEnvInt("NOTIFY_MAX_RETRIES", 3),

		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),

		ReminderSchedule: getEnv("REMINDER_SCHEDULE", "@daily"),
		ReminderEmbedded: getEnvBool("REMINDER_EMBEDDED", false),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Expenses"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
	}

	if cfg.SMTPFrom == "" {
		cfg.SMTPFrom = cfg.SMTPUsername
	}

	return cfg
}

// IsDevelopment reports whether APP_ENV selects the development environment.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// ResetAllowed reports whether the schema may be dropped and recreated on
// startup. Both DB_RESET and a development APP_ENV are required.
func (c *Config) ResetAllowed() bool {
	return c.DBReset && c.IsDevelopment()
}

// SheetsEnabled reports whether the Google Sheets export is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != "" &&
		(c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != "")
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMin < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMin))
	}

	// Validate SQLite configuration
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.DBReset && !c.IsDevelopment() {
		errors = append(errors, fmt.Sprintf("DB_RESET is only allowed when APP_ENV=%s (got '%s')", EnvDevelopment, c.AppEnv))
	}

	// Validate auth
	if c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	} else if len(c.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET must be at least 16 characters")
	}
	if c.TokenTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid token TTL %v: must be at least 1 minute", c.TokenTTL))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPReminderQueue == "" || c.AMQPExpenseQueue == "" {
			errors = append(errors, "AMQP queue names cannot be empty when AMQP URL is provided")
		}
	}

	// Validate notifier selection
	validNotifiers := []string{NotifierLog, NotifierSMTP, NotifierAMQP}
	if !slices.Contains(validNotifiers, c.Notifier) {
		errors = append(errors, fmt.Sprintf("invalid notifier '%s': must be one of %v", c.Notifier, validNotifiers))
	}
	if c.Notifier == NotifierAMQP && c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required when using the amqp notifier")
	}
	if c.Notifier == NotifierSMTP {
		if c.SMTPHost == "" {
			errors = append(errors, "SMTP_HOST is required when using the smtp notifier")
		}
		if c.SMTPPort < 1 || c.SMTPPort > 65535 {
			errors = append(errors, fmt.Sprintf("invalid SMTP port %d: must be between 1 and 65535", c.SMTPPort))
		}
		if c.SMTPUsername == "" || c.SMTPPassword == "" {
			errors = append(errors, "SMTP_USERNAME and SMTP_PASSWORD are required when using the smtp notifier")
		}
	}

	if c.NotifyTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid notify timeout %v: must be at least 1 second", c.NotifyTimeout))
	} else if c.NotifyTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid notify timeout %v: must be at most 5 minutes", c.NotifyTimeout))
	}
	if c.NotifyMaxRetries < 0 || c.NotifyMaxRetries > 10 {
		errors = append(errors, fmt.Sprintf("invalid notify max retries %d: must be between 0 and 10", c.NotifyMaxRetries))
	}

	// Validate reminder schedule
	if _, err := cron.ParseStandard(c.ReminderSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("invalid reminder schedule '%s': %v", c.ReminderSchedule, err))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
