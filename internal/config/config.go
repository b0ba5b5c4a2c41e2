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

	"github.com/spf13/viper"
)

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int

	// Database
	SQLiteDBPath string

	// Logging
	LogLevel  string
	LogFormat string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	AMQPPrefetch int

	// Sheets mirror
	SheetsBackend            string
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// Keys are the lower-cased environment variable names; viper upper-cases
// them again for the AutomaticEnv lookup.
const (
	KeyPort                     = "port"
	KeyShutdownTimeout          = "shutdown_timeout"
	KeyRateLimitRPS             = "rate_limit_rps"
	KeyRateLimitBurst           = "rate_limit_burst"
	KeySQLiteDBPath             = "sqlite_db_path"
	KeyLogLevel                 = "log_level"
	KeyLogFormat                = "log_format"
	KeyAMQPURL                  = "amqp_url"
	KeyAMQPExchange             = "amqp_exchange"
	KeyAMQPQueue                = "amqp_queue"
	KeyAMQPPrefetch             = "amqp_prefetch"
	KeySheetsBackend            = "sheets_backend"
	KeyGoogleSpreadsheetID      = "google_spreadsheet_id"
	KeyGoogleSheetName          = "google_sheet_name"
	KeyGoogleServiceAccountJSON = "google_service_account_json"
	KeyGoogleServiceAccountFile = "google_service_account_file"
)

var defaults = map[string]any{
	KeyPort:            "8081",
	KeyShutdownTimeout: 30 * time.Second,
	KeyRateLimitRPS:    20.0,
	KeyRateLimitBurst:  40,
	KeySQLiteDBPath:    "./data/contabilidad.db",
	KeyLogLevel:        "info",
	KeyLogFormat:       "text",
	KeyAMQPURL:         "",
	KeyAMQPExchange:    "contabilidad",
	KeyAMQPQueue:       "ledger_events",
	KeyAMQPPrefetch:    10,
	KeySheetsBackend:   "memory",
	KeyGoogleSheetName: "Movimientos",
}

var (
	validLogLevels     = []string{"debug", "info", "warn", "error"}
	validLogFormats    = []string{"text", "json"}
	validSheetBackends = []string{"memory", "google"}
)

// NewViper returns a viper instance with every default registered and
// environment lookup enabled. Commands bind their flags into it before
// calling FromViper.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	return v
}

// Load reads the configuration from the environment.
func Load() *Config {
	return FromViper(NewViper())
}

// FromViper builds a Config from v. Values that fail to parse come back
// as zero values and are reported by Validate.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Port:            v.GetString(KeyPort),
		ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
		RateLimitRPS:    v.GetFloat64(KeyRateLimitRPS),
		RateLimitBurst:  v.GetInt(KeyRateLimitBurst),

		SQLiteDBPath: v.GetString(KeySQLiteDBPath),

		LogLevel:  strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat: strings.ToLower(v.GetString(KeyLogFormat)),

		AMQPURL:      v.GetString(KeyAMQPURL),
		AMQPExchange: v.GetString(KeyAMQPExchange),
		AMQPQueue:    v.GetString(KeyAMQPQueue),
		AMQPPrefetch: v.GetInt(KeyAMQPPrefetch),

		SheetsBackend:            v.GetString(KeySheetsBackend),
		GoogleSpreadsheetID:      v.GetString(KeyGoogleSpreadsheetID),
		GoogleSheetName:          v.GetString(KeyGoogleSheetName),
		GoogleServiceAccountJSON: v.GetString(KeyGoogleServiceAccountJSON),
		GoogleServiceAccountFile: v.GetString(KeyGoogleServiceAccountFile),
	}
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

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	} else if c.ShutdownTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at most 5 minutes", c.ShutdownTimeout))
	}

	if c.RateLimitRPS <= 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %v: must be positive", c.RateLimitRPS))
	}
	if c.RateLimitBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit burst %d: must be at least 1", c.RateLimitBurst))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
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

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormats))
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
	if c.AMQPPrefetch < 0 || c.AMQPPrefetch > 1000 {
		errors = append(errors, fmt.Sprintf("invalid AMQP prefetch %d: must be between 0 and 1000", c.AMQPPrefetch))
	}

	if !slices.Contains(validSheetBackends, c.SheetsBackend) {
		errors = append(errors, fmt.Sprintf("invalid sheets backend '%s': must be one of %v", c.SheetsBackend, validSheetBackends))
	}
	if c.SheetsBackend == "google" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using google sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using google sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
