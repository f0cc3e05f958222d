package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"metas/internal/core"
)

type Config struct {
	// HTTP Server
	Port         string
	RateLimitRPM int

	// Logging
	LogLevel string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export target
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	EscadinhaSheetName       string

	// Escadinha insights
	Thresholds []core.Money

	// Report cache
	ReportCacheSize int
	ReportCacheTTL  time.Duration

	// Worker
	ExportBatchSize    int
	ExportPollInterval time.Duration
	ExportTarget       string
	ExportAutoSync     bool
	ExportMaxAttempts  int

	// Backend selection
	DataBackend string
	DataDir     string
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		RateLimitRPM: getEnvInt("RATE_LIMIT_RPM", 60),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/metas.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "metas"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "escadinha_export"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),
		EscadinhaSheetName:       getEnv("ESCADINHA_SHEET_NAME", "Escadinha"),

		Thresholds: getEnvMoneyList("ESCADINHA_THRESHOLDS", core.DefaultThresholds),

		ReportCacheSize: getEnvInt("REPORT_CACHE_SIZE", 200),
		ReportCacheTTL:  getEnvDuration("REPORT_CACHE_TTL", 5*time.Minute),

		ExportBatchSize:    getEnvInt("EXPORT_BATCH_SIZE", 10),
		ExportPollInterval: getEnvDuration("EXPORT_POLL_INTERVAL", 30*time.Second),
		ExportTarget:       getEnv("EXPORT_TARGET", "sheets"),
		ExportAutoSync:     getEnvBool("EXPORT_AUTO_SYNC", false),
		ExportMaxAttempts:  getEnvInt("EXPORT_MAX_ATTEMPTS", 5),

		DataBackend: getEnv("DATA_BACKEND", "memory"),
		DataDir:     getEnv("DATA_DIR", "data"),
	}

	return cfg
}

// SheetsEnabled reports whether a Google Sheets export target is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitRPM < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitRPM))
	}

	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
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
	}

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

	if c.SheetsEnabled() {
		if strings.TrimSpace(c.EscadinhaSheetName) == "" {
			errors = append(errors, "escadinha sheet name is required when GOOGLE_SPREADSHEET_ID is set")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets export")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if len(c.Thresholds) == 0 {
		errors = append(errors, "at least one escadinha threshold is required")
	}
	for _, t := range c.Thresholds {
		if t.Cents <= 0 {
			errors = append(errors, fmt.Sprintf("invalid escadinha threshold %s: must be positive", t))
		}
	}

	if c.ReportCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid report cache size %d: must be at least 1", c.ReportCacheSize))
	}
	if c.ReportCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid report cache ttl %v: must be positive", c.ReportCacheTTL))
	}

	if c.ExportBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid export batch size %d: must be at least 1", c.ExportBatchSize))
	} else if c.ExportBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid export batch size %d: must be at most 1000", c.ExportBatchSize))
	}

	if c.ExportPollInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export poll interval %v: must be at least 1 second", c.ExportPollInterval))
	} else if c.ExportPollInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export poll interval %v: must be at most 24 hours", c.ExportPollInterval))
	}

	if c.ExportTarget != "sheets" && c.ExportTarget != "file" {
		errors = append(errors, fmt.Sprintf("invalid export target '%s': must be 'sheets' or 'file'", c.ExportTarget))
	}
	if c.ExportMaxAttempts < 1 {
		errors = append(errors, fmt.Sprintf("invalid export max attempts %d: must be at least 1", c.ExportMaxAttempts))
	}

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

// getEnvMoneyList parses a comma-separated list of whole currency units.
// Any unparsable entry makes the whole value fall back to the default.
func getEnvMoneyList(key string, defaultValue []core.Money) []core.Money {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return append([]core.Money(nil), defaultValue...)
	}
	var out []core.Money
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		units, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return append([]core.Money(nil), defaultValue...)
		}
		out = append(out, core.FromUnits(units))
	}
	return out
}
