// Package config provides centralized configuration for the escape bot.
// Values come from defaults, an optional .env file and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kipper0508/escape-bot/internal/logging"
	"github.com/kipper0508/escape-bot/internal/validate"
)

// Store drivers.
const (
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

// RuntimeConfig holds all runtime configuration values.
type RuntimeConfig struct {
	Server    ServerConfig
	LINE      LineConfig
	OpenAI    OpenAIConfig
	Catalog   CatalogConfig
	Storage   StorageConfig
	Bot       BotConfig
	Scheduler SchedulerConfig
	Log       LogConfig

	// problems collects overrides that could not be parsed.
	problems []string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string `validate:"required,numeric"`
	Environment string `validate:"required"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// LineConfig holds the LINE channel credentials.
type LineConfig struct {
	ChannelAccessToken string
	ChannelSecret      string
}

// OpenAIConfig holds the summarizer endpoint settings.
type OpenAIConfig struct {
	APIKey  string
	Model   string `validate:"required"`
	BaseURL string `validate:"required,url"`
}

// CatalogConfig holds the game catalog client settings.
type CatalogConfig struct {
	BaseURL   string        `validate:"required,url"`
	ReviewURL string        `validate:"required,url"`
	Timeout   time.Duration `validate:"gt=0"`
	// Rate is requests per second.
	Rate float64 `validate:"gt=0"`
}

// StorageConfig selects and locates the event store.
type StorageConfig struct {
	Driver string `validate:"oneof=badger sqlite"`
	// Path is the badger directory. Empty uses the XDG data directory.
	Path string
	// URL is the sqlite database file.
	URL string
}

// BotConfig holds chat behaviour settings.
type BotConfig struct {
	Trigger        string        `validate:"required"`
	TimeZone       string        `validate:"required"`
	RemindBefore   time.Duration `validate:"gte=0"`
	ConflictWindow time.Duration `validate:"gt=0"`
	// GroupOnly ignores commands from one-to-one chats.
	GroupOnly bool
}

// SchedulerConfig holds the reminder scan schedule.
type SchedulerConfig struct {
	// ReminderCron is a six-field cron spec (with seconds).
	ReminderCron string `validate:"required"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `validate:"omitempty,oneof=debug info warn warning error"`
	JSON  bool
	File  string
}

// DefaultRuntimeConfig returns the default runtime configuration.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		Server: ServerConfig{
			Port:            "3000",
			Environment:     "development",
			ShutdownTimeout: 10 * time.Second,
		},
		OpenAI: OpenAIConfig{
			Model:   "gpt-4o",
			BaseURL: "https://api.openai.com/v1",
		},
		Catalog: CatalogConfig{
			BaseURL:   "https://escape.bar",
			ReviewURL: "https://bartender.escape.bar",
			Timeout:   10 * time.Second,
			Rate:      2,
		},
		Storage: StorageConfig{
			Driver: DriverBadger,
			URL:    "escape-bot.db",
		},
		Bot: BotConfig{
			Trigger:        "小精靈",
			TimeZone:       "Asia/Taipei",
			RemindBefore:   24 * time.Hour,
			ConflictWindow: 60 * time.Minute,
			GroupOnly:      true,
		},
		Scheduler: SchedulerConfig{
			ReminderCron: "0 0 * * * *",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Global holds the configuration loaded at startup.
var Global = DefaultRuntimeConfig()

// Load reads an optional .env file, applies environment overrides to the
// defaults, stores the result in Global and returns it.
func Load(envFiles ...string) (*RuntimeConfig, error) {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	cfg := DefaultRuntimeConfig()
	cfg.loadFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	Global = cfg
	return cfg, nil
}

func (c *RuntimeConfig) duration(key string, dst *time.Duration) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s: %v", key, err))
		return
	}
	*dst = d
}

func (c *RuntimeConfig) boolean(key string, dst *bool) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s: %v", key, err))
		return
	}
	*dst = b
}

func str(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// loadFromEnv loads configuration overrides from environment variables.
func (c *RuntimeConfig) loadFromEnv() {
	str("PORT", &c.Server.Port)
	str("ENVIRONMENT", &c.Server.Environment)
	c.duration("SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)

	str("LINE_CHANNEL_ACCESS_TOKEN", &c.LINE.ChannelAccessToken)
	str("LINE_CHANNEL_SECRET", &c.LINE.ChannelSecret)

	str("OPENAI_API_KEY", &c.OpenAI.APIKey)
	str("OPENAI_MODEL", &c.OpenAI.Model)
	str("OPENAI_BASE_URL", &c.OpenAI.BaseURL)

	str("CATALOG_BASE_URL", &c.Catalog.BaseURL)
	str("CATALOG_REVIEW_URL", &c.Catalog.ReviewURL)
	c.duration("CATALOG_TIMEOUT", &c.Catalog.Timeout)
	if v := os.Getenv("CATALOG_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Catalog.Rate = f
		} else {
			c.problems = append(c.problems, fmt.Sprintf("CATALOG_RATE: %v", err))
		}
	}

	str("STORE_DRIVER", &c.Storage.Driver)
	c.Storage.Driver = strings.ToLower(c.Storage.Driver)
	str("DATABASE_PATH", &c.Storage.Path)
	str("DATABASE_URL", &c.Storage.URL)

	str("BOT_TRIGGER", &c.Bot.Trigger)
	str("EVENT_TIMEZONE", &c.Bot.TimeZone)
	c.duration("REMIND_BEFORE", &c.Bot.RemindBefore)
	c.duration("CONFLICT_WINDOW", &c.Bot.ConflictWindow)
	c.boolean("GROUP_ONLY", &c.Bot.GroupOnly)

	str("REMINDER_CRON", &c.Scheduler.ReminderCron)

	str("LOG_LEVEL", &c.Log.Level)
	c.boolean("LOG_JSON", &c.Log.JSON)
	str("LOG_FILE", &c.Log.File)
}

// Validate checks field rules and reports unparsable overrides.
func (c *RuntimeConfig) Validate() error {
	if len(c.problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(c.problems, "; "))
	}
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid EVENT_TIMEZONE %q: %w", c.Bot.TimeZone, err)
	}
	return nil
}

// ValidateServe additionally requires what the webhook server needs.
func (c *RuntimeConfig) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	var missing []string
	if c.LINE.ChannelAccessToken == "" {
		missing = append(missing, "LINE_CHANNEL_ACCESS_TOKEN")
	}
	if c.LINE.ChannelSecret == "" {
		missing = append(missing, "LINE_CHANNEL_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Location loads the configured event time zone.
func (c *RuntimeConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Bot.TimeZone)
}

// IsProduction reports whether the environment is production.
func (c *RuntimeConfig) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// LogFields returns key-value pairs describing the configuration with secrets masked.
func (c *RuntimeConfig) LogFields() []any {
	return []any{
		"port", c.Server.Port,
		"environment", c.Server.Environment,
		"store_driver", c.Storage.Driver,
		"trigger", c.Bot.Trigger,
		"timezone", c.Bot.TimeZone,
		"group_only", c.Bot.GroupOnly,
		"reminder_cron", c.Scheduler.ReminderCron,
		"line_channel_access_token", logging.MaskValue(c.LINE.ChannelAccessToken),
		"line_channel_secret", logging.MaskValue(c.LINE.ChannelSecret),
		"openai_api_key", logging.MaskValue(c.OpenAI.APIKey),
	}
}

// Reset resets the configuration to defaults.
// This is primarily useful for testing.
func (c *RuntimeConfig) Reset() {
	*c = *DefaultRuntimeConfig()
}
