package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	LogLevel string

	// Remote Banking Simulator API
	APIBaseURL  string
	HTTPTimeout time.Duration

	// Session
	SessionFile string

	// Resilience
	MaxConcurrency int
	ProbeRetries   int
	InitialBackoff time.Duration

	// Admin collections; zero keeps a loaded collection until refreshed.
	CollectionCacheTTL time.Duration

	// Console server
	ConsolePort    int
	RateLimitRPS   float64
	RateLimitBurst int

	// Observability
	TracingEnabled bool
	OTLPEndpoint   string

	// Local simulator
	SimulatorPort          int
	SimulatorJWTSecret     string
	SimulatorTokenTTL      time.Duration
	SimulatorAdminUser     string
	SimulatorAdminPassword string
}

// LoadDotEnv reads .env files into the environment. Existing variables win
// over the files, and missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIBaseURL:  getEnv("API_BASE_URL", "http://localhost:8080/bank-simulator/api"),
		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 30*time.Second),

		SessionFile: getEnv("SESSION_FILE", defaultSessionFile()),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 8),
		ProbeRetries:   getEnvInt("PROBE_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 200*time.Millisecond),

		CollectionCacheTTL: getEnvDuration("COLLECTION_CACHE_TTL", 0),

		ConsolePort:    getEnvInt("CONSOLE_PORT", 8090),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 50),

		TracingEnabled: getEnv("TRACING_ENABLED", "false") == "true",
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		SimulatorPort:          getEnvInt("SIMULATOR_PORT", 8080),
		SimulatorJWTSecret:     getEnv("SIMULATOR_JWT_SECRET", "banksim-dev-secret-change-me"),
		SimulatorTokenTTL:      getEnvDuration("SIMULATOR_TOKEN_TTL", time.Hour),
		SimulatorAdminUser:     getEnv("SIMULATOR_ADMIN_USER", "admin"),
		SimulatorAdminPassword: getEnv("SIMULATOR_ADMIN_PASSWORD", "admin123"),
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".banksim-session.json"
	}
	return filepath.Join(dir, "banksim", "session.json")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
