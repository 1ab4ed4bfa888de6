// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/usestring/pmsinspect-mcp/internal/history"
	"github.com/usestring/pmsinspect-mcp/internal/mock"
	"github.com/usestring/pmsinspect-mcp/pkg/platform"
)

// Tool output limit defaults
const (
	DefaultRecordsLimitValue = 50
	MaxRecordsLimitValue     = 1000
)

// Config holds all configuration for the MCP server.
type Config struct {
	Mode               string                  // PMS_MODE, "mock" or "live", default "mock"
	DefaultPlatform    string                  // PMS_DEFAULT_PLATFORM, default "guesty"
	DefaultEnvironment string                  // PMS_DEFAULT_ENVIRONMENT, default "production"
	BaseURLs           map[platform.Key]string // PMS_<PLATFORM>_BASE_URL, unset keeps the built-in URL
	HTTPClientTimeout  time.Duration           // HTTP_CLIENT_TIMEOUT_MS, default 10000ms (10s)
	RateLimitRPS       float64                 // PMS_RATE_LIMIT_RPS, default 0 (unlimited)
	RateLimitBurst     int                     // PMS_RATE_LIMIT_BURST, default 1

	HistoryLimit    int           // HISTORY_LIMIT, default 50
	MockDelay       time.Duration // MOCK_DELAY_MS, default 800ms
	MockFailureRate float64       // MOCK_FAILURE_RATE, default 0.2

	SchemaFile          string // SCHEMA_FILE, YAML catalog file, default "" (built-in catalog)
	SchemaURL           string // SCHEMA_URL, remote catalog URL template with {platform}
	SchemaCacheMaxItems int    // SCHEMA_CACHE_MAX_ITEMS, default 16

	ExportDir string // EXPORT_DIR, default "" (exports are returned inline only)

	// Tool output limits
	DefaultRecordsLimit int // DEFAULT_RECORDS_LIMIT
	MaxRecordsLimit     int // MAX_RECORDS_LIMIT

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFormat     string // LOG_FORMAT, "text" or "json", default "text"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// LoadDotEnv loads variables from the given .env files into the process
// environment, skipping files that do not exist. Variables already set win.
// It returns the paths that were loaded.
func LoadDotEnv(paths ...string) []string {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var loaded []string
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			loaded = append(loaded, p)
		}
	}
	return loaded
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Mode:               getEnvString("PMS_MODE", "mock"),
		DefaultPlatform:    getEnvString("PMS_DEFAULT_PLATFORM", string(platform.DefaultPlatform)),
		DefaultEnvironment: getEnvString("PMS_DEFAULT_ENVIRONMENT", platform.DefaultEnvironment),
		BaseURLs:           baseURLOverrides(),
		HTTPClientTimeout:  getEnvDurationMs("HTTP_CLIENT_TIMEOUT_MS", 10000),
		RateLimitRPS:       getEnvFloat("PMS_RATE_LIMIT_RPS", 0),
		RateLimitBurst:     getEnvInt("PMS_RATE_LIMIT_BURST", 1),

		HistoryLimit:    getEnvInt("HISTORY_LIMIT", history.DefaultLimit),
		MockDelay:       getEnvDurationMs("MOCK_DELAY_MS", int(mock.DefaultDelay/time.Millisecond)),
		MockFailureRate: getEnvFloat("MOCK_FAILURE_RATE", mock.DefaultFailureRate),

		SchemaFile:          getEnvString("SCHEMA_FILE", ""),
		SchemaURL:           getEnvString("SCHEMA_URL", ""),
		SchemaCacheMaxItems: getEnvInt("SCHEMA_CACHE_MAX_ITEMS", 16),

		ExportDir: getEnvString("EXPORT_DIR", ""),

		DefaultRecordsLimit: getEnvInt("DEFAULT_RECORDS_LIMIT", DefaultRecordsLimitValue),
		MaxRecordsLimit:     getEnvInt("MAX_RECORDS_LIMIT", MaxRecordsLimitValue),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFormat:     getEnvString("LOG_FORMAT", "text"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

// BaseURLEnv returns the variable that overrides p's base URL,
// e.g. PMS_GUESTY_BASE_URL.
func BaseURLEnv(p platform.Key) string {
	return "PMS_" + strings.ToUpper(string(p)) + "_BASE_URL"
}

func baseURLOverrides() map[platform.Key]string {
	out := make(map[platform.Key]string)
	for _, p := range platform.All() {
		if v := getEnvString(BaseURLEnv(p), ""); v != "" {
			out[p] = v
		}
	}
	return out
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
