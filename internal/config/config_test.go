package config

import (
	"strings"
	"testing"
	"time"
)

// validConfig returns a configuration that passes validation; cases mutate it.
func validConfig(t *testing.T) Config {
	return Config{
		Port:              "8000",
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimitPerMin:   60,
		AppEnv:            EnvProduction,
		SQLiteDBPath:      t.TempDir() + "/spendwise.db",
		JWTSecret:         "a-very-long-test-secret",
		TokenTTL:          24 * time.Hour,
		Notifier:          NotifierLog,
		NotifyTimeout:     10 * time.Second,
		NotifyMaxRetries:  3,
		ReminderSchedule:  "@daily",
		AMQPExchange:      "spendwise",
		AMQPReminderQueue: "bill_reminders",
		AMQPExpenseQueue:  "expense_sync",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "valid smtp notifier",
			mutate: func(c *Config) {
				c.Notifier = NotifierSMTP
				c.SMTPHost = "smtp.gmail.com"
				c.SMTPPort = 587
				c.SMTPUsername = "bills@example.com"
				c.SMTPPassword = "app-password"
			},
			wantErr: false,
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "missing database path",
			mutate:      func(c *Config) { c.SQLiteDBPath = "" },
			wantErr:     true,
			errorString: "SQLite database path cannot be empty",
		},
		{
			name:        "missing jwt secret",
			mutate:      func(c *Config) { c.JWTSecret = "" },
			wantErr:     true,
			errorString: "JWT_SECRET is required",
		},
		{
			name:        "short jwt secret",
			mutate:      func(c *Config) { c.JWTSecret = "short" },
			wantErr:     true,
			errorString: "JWT_SECRET must be at least 16 characters",
		},
		{
			name:        "token ttl too short",
			mutate:      func(c *Config) { c.TokenTTL = 10 * time.Second },
			wantErr:     true,
			errorString: "invalid token TTL 10s",
		},
		{
			name:        "invalid AMQP URL scheme",
			mutate:      func(c *Config) { c.AMQPURL = "http://localhost:5672/" },
			wantErr:     true,
			errorString: "invalid AMQP URL scheme 'http': must be 'amqp' or 'amqps'",
		},
		{
			name: "AMQP URL without exchange",
			mutate: func(c *Config) {
				c.AMQPURL = "amqp://localhost:5672/"
				c.AMQPExchange = ""
			},
			wantErr:     true,
			errorString: "AMQP exchange name cannot be empty when AMQP URL is provided",
		},
		{
			name:        "unknown notifier",
			mutate:      func(c *Config) { c.Notifier = "pigeon" },
			wantErr:     true,
			errorString: "invalid notifier 'pigeon'",
		},
		{
			name:        "amqp notifier without broker",
			mutate:      func(c *Config) { c.Notifier = NotifierAMQP },
			wantErr:     true,
			errorString: "AMQP_URL is required when using the amqp notifier",
		},
		{
			name: "smtp notifier without credentials",
			mutate: func(c *Config) {
				c.Notifier = NotifierSMTP
				c.SMTPHost = "smtp.gmail.com"
				c.SMTPPort = 587
			},
			wantErr:     true,
			errorString: "SMTP_USERNAME and SMTP_PASSWORD are required when using the smtp notifier",
		},
		{
			name:        "notify timeout too short",
			mutate:      func(c *Config) { c.NotifyTimeout = 500 * time.Millisecond },
			wantErr:     true,
			errorString: "invalid notify timeout 500ms: must be at least 1 second",
		},
		{
			name:        "negative retries",
			mutate:      func(c *Config) { c.NotifyMaxRetries = -1 },
			wantErr:     true,
			errorString: "invalid notify max retries -1",
		},
		{
			name:        "invalid cron spec",
			mutate:      func(c *Config) { c.ReminderSchedule = "every day please" },
			wantErr:     true,
			errorString: "invalid reminder schedule 'every day please'",
		},
		{
			name:    "standard five field cron spec",
			mutate:  func(c *Config) { c.ReminderSchedule = "0 9 * * *" },
			wantErr: false,
		},
		{
			name:        "db reset outside development",
			mutate:      func(c *Config) { c.DBReset = true },
			wantErr:     true,
			errorString: "DB_RESET is only allowed when APP_ENV=development",
		},
		{
			name: "db reset in development",
			mutate: func(c *Config) {
				c.DBReset = true
				c.AppEnv = EnvDevelopment
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Config.Validate() error = nil, wantErr %v", tt.wantErr)
					return
				}
				if tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("Config.Validate() error = %v, want error containing %v", err.Error(), tt.errorString)
				}
			} else if err != nil {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Port = "abc"
	cfg.JWTSecret = ""
	cfg.Notifier = "pigeon"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "configuration validation failed:\n- ") {
		t.Fatalf("unexpected prefix: %q", msg)
	}
	if n := strings.Count(msg, "\n- "); n != 3 {
		t.Fatalf("expected 3 problems, got %d in %q", n, msg)
	}
}

func TestConfig_ResetAllowed(t *testing.T) {
	tests := []struct {
		name   string
		reset  bool
		appEnv string
		want   bool
	}{
		{"reset in development", true, EnvDevelopment, true},
		{"reset in production", true, EnvProduction, false},
		{"no reset in development", false, EnvDevelopment, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config{DBReset: tt.reset, AppEnv: tt.appEnv}
			if got := c.ResetAllowed(); got != tt.want {
				t.Errorf("Config.ResetAllowed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	keys := []string{
		"PORT", "SQLITE_DB_PATH", "JWT_SECRET", "TOKEN_TTL", "NOTIFIER",
		"NOTIFY_MAX_RETRIES", "REMINDER_SCHEDULE", "REMINDER_EMBEDDED",
		"SMTP_USERNAME", "SMTP_FROM", "DB_RESET", "APP_ENV",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}

	t.Run("default values", func(t *testing.T) {
		cfg := Load()

		if cfg.Port != "8000" {
			t.Errorf("Load() Port = %v, want 8000", cfg.Port)
		}
		if cfg.SQLiteDBPath != "./data/spendwise.db" {
			t.Errorf("Load() SQLiteDBPath = %v, want ./data/spendwise.db", cfg.SQLiteDBPath)
		}
		if cfg.Notifier != NotifierLog {
			t.Errorf("Load() Notifier = %v, want log", cfg.Notifier)
		}
		if cfg.NotifyTimeout != 10*time.Second {
			t.Errorf("Load() NotifyTimeout = %v, want 10s", cfg.NotifyTimeout)
		}
		if cfg.ReminderSchedule != "@daily" {
			t.Errorf("Load() ReminderSchedule = %v, want @daily", cfg.ReminderSchedule)
		}
		if cfg.AMQPReminderQueue != "bill_reminders" {
			t.Errorf("Load() AMQPReminderQueue = %v, want bill_reminders", cfg.AMQPReminderQueue)
		}
		if cfg.ReminderEmbedded || cfg.DBReset {
			t.Errorf("Load() boolean flags should default to false")
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("TOKEN_TTL", "2h")
		t.Setenv("NOTIFIER", "smtp")
		t.Setenv("NOTIFY_MAX_RETRIES", "5")
		t.Setenv("REMINDER_EMBEDDED", "true")
		t.Setenv("SMTP_USERNAME", "bills@example.com")

		cfg := Load()

		if cfg.Port != "9090" {
			t.Errorf("Load() Port = %v, want 9090", cfg.Port)
		}
		if cfg.TokenTTL != 2*time.Hour {
			t.Errorf("Load() TokenTTL = %v, want 2h", cfg.TokenTTL)
		}
		if cfg.Notifier != NotifierSMTP || cfg.NotifyMaxRetries != 5 {
			t.Errorf("Load() notifier = %v/%d, want smtp/5", cfg.Notifier, cfg.NotifyMaxRetries)
		}
		if !cfg.ReminderEmbedded {
			t.Errorf("Load() ReminderEmbedded = false, want true")
		}
		if cfg.SMTPFrom != "bills@example.com" {
			t.Errorf("Load() SMTPFrom = %v, want sender to default to username", cfg.SMTPFrom)
		}
	})

	t.Run("invalid environment variables use defaults", func(t *testing.T) {
		t.Setenv("NOTIFY_MAX_RETRIES", "invalid")
		t.Setenv("TOKEN_TTL", "invalid")
		t.Setenv("REMINDER_EMBEDDED", "maybe")

		cfg := Load()

		if cfg.NotifyMaxRetries != 3 {
			t.Errorf("Load() NotifyMaxRetries = %v, want 3 (default for invalid input)", cfg.NotifyMaxRetries)
		}
		if cfg.TokenTTL != 24*time.Hour {
			t.Errorf("Load() TokenTTL = %v, want 24h (default for invalid input)", cfg.TokenTTL)
		}
		if cfg.ReminderEmbedded {
			t.Errorf("Load() ReminderEmbedded = true, want false (default for invalid input)")
		}
	})
}
