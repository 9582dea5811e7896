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

	"github.com/shopspring/decimal"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	CacheTTL           time.Duration

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath       string
	FirestoreProjectID string

	// AMQP, an empty URL disables the notification queue
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Alerts
	AlertEnabled       bool
	AlertLossThreshold decimal.Decimal
	AlertDailyAt       string
	AlertTimezone      string

	// Notifications
	NotifyTimeout     time.Duration
	NotifyMaxAttempts int
	WhatsAppToken     string
	WhatsAppTo        string
	WhatsAppAccountID string
	WhatsAppAPIBase   string

	// AI assistant
	GeminiModel    string
	AdvisorTimeout time.Duration

	// Ingestion
	CategoryRulesFile   string
	ImportCSVPath       string
	GoogleSpreadsheetID string
	GoogleSheetName     string

	LogLevel string
}

var (
	validBackends  = []string{"memory", "sqlite", "firestore"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		CacheTTL:           getEnvDuration("CACHE_TTL", time.Minute),

		DataBackend: strings.ToLower(getEnv("DATA_BACKEND", "sqlite")),

		SQLiteDBPath:       getEnv("SQLITE_DB_PATH", "./data/movimenti.db"),
		FirestoreProjectID: getEnv("FIRESTORE_PROJECT_ID", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "movimenti"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "alert_notifications"),

		AlertEnabled:       getEnvBool("ALERT_ENABLED", true),
		AlertLossThreshold: getEnvDecimal("ALERT_LOSS_THRESHOLD", decimal.Zero),
		AlertDailyAt:       getEnv("ALERT_DAILY_AT", "09:00"),
		AlertTimezone:      getEnv("ALERT_TIMEZONE", "UTC"),

		NotifyTimeout:     getEnvDuration("NOTIFY_TIMEOUT", 15*time.Second),
		NotifyMaxAttempts: getEnvInt("NOTIFY_MAX_ATTEMPTS", 3),
		WhatsAppToken:     getEnv("WHATSAPP_TOKEN", ""),
		WhatsAppTo:        getEnv("WHATSAPP_TO", ""),
		WhatsAppAccountID: getEnv("WHATSAPP_ACCOUNT_ID", ""),
		WhatsAppAPIBase:   getEnv("WHATSAPP_API_BASE", "https://graph.facebook.com/v22.0"),

		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		AdvisorTimeout: getEnvDuration("ADVISOR_TIMEOUT", 30*time.Second),

		CategoryRulesFile:   getEnv("CATEGORY_RULES_FILE", ""),
		ImportCSVPath:       getEnv("IMPORT_CSV_PATH", ""),
		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Transactions"),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	return cfg
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

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: cannot be negative", c.CacheTTL))
	}

	// Validate data backend
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "firestore" && c.FirestoreProjectID == "" {
		errors = append(errors, "FIRESTORE_PROJECT_ID is required when using firestore backend")
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
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate alert schedule
	if c.AlertLossThreshold.IsNegative() {
		errors = append(errors, fmt.Sprintf("invalid loss threshold %s: cannot be negative", c.AlertLossThreshold))
	}
	if _, err := time.Parse("15:04", c.AlertDailyAt); err != nil {
		errors = append(errors, fmt.Sprintf("invalid daily alert time '%s': must be HH:MM", c.AlertDailyAt))
	}
	if _, err := time.LoadLocation(c.AlertTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid alert timezone '%s': %v", c.AlertTimezone, err))
	}

	// Validate notifications
	if c.NotifyTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid notify timeout %v: must be positive", c.NotifyTimeout))
	}
	if c.NotifyMaxAttempts < 1 || c.NotifyMaxAttempts > 10 {
		errors = append(errors, fmt.Sprintf("invalid notify attempts %d: must be between 1 and 10", c.NotifyMaxAttempts))
	}
	set := 0
	for _, v := range []string{c.WhatsAppToken, c.WhatsAppTo, c.WhatsAppAccountID} {
		if v != "" {
			set++
		}
	}
	if set > 0 && set < 3 {
		errors = append(errors, "WHATSAPP_TOKEN, WHATSAPP_TO and WHATSAPP_ACCOUNT_ID must be set together")
	}
	if parsedURL, err := url.Parse(c.WhatsAppAPIBase); err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		errors = append(errors, fmt.Sprintf("invalid WhatsApp API base '%s': must be an http(s) URL", c.WhatsAppAPIBase))
	}

	if c.AdvisorTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid advisor timeout %v: must be positive", c.AdvisorTimeout))
	}

	// Check if optional input files exist (if specified)
	if c.CategoryRulesFile != "" {
		if _, err := os.Stat(c.CategoryRulesFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("category rules file does not exist: %s", c.CategoryRulesFile))
		}
	}
	if c.ImportCSVPath != "" {
		if _, err := os.Stat(c.ImportCSVPath); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("import CSV file does not exist: %s", c.ImportCSVPath))
		}
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Location resolves AlertTimezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AlertTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WhatsAppEnabled reports whether every WhatsApp credential is present.
func (c *Config) WhatsAppEnabled() bool {
	return c.WhatsAppToken != "" && c.WhatsAppTo != "" && c.WhatsAppAccountID != ""
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

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}
