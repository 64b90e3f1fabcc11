package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	AppName   string
	Server    ServerConfig
	Storage   StorageConfig
	Log       LogConfig
	FluentBit FluentBitConfig
	Notify    NotifyConfig
	Match     MatchConfig
}

type ServerConfig struct {
	Address         string
	Env             string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

type StorageConfig struct {
	Driver      string
	SQLitePath  string
	PostgresURL string
	SeedPath    string
}

type LogConfig struct {
	Level  string
	Format string // text | json
}

type FluentBitConfig struct {
	Enabled   bool
	Host      string
	Port      int
	TagPrefix string
	Level     string
}

type NotifyConfig struct {
	AMQPURL    string
	Exchange   string
	MinScore   int
	MaxMatches int
}

type MatchConfig struct {
	DefaultLimit int
}

// Load reads an optional .env file and builds the config from the environment.
// A missing .env file is not an error.
func Load(envFile ...string) *Config {
	var err error
	if len(envFile) > 0 && envFile[0] != "" {
		err = godotenv.Load(envFile[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		log.Printf("no .env file loaded (%v), using environment and defaults", err)
	}

	appName := getEnv("APP_NAME", "crm-lead-matching")

	return &Config{
		AppName: appName,
		Server: ServerConfig{
			Address:         getEnv("API_ADDRESS", ":8080"),
			Env:             getEnv("APP_ENV", "development"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", "10s"),
			CORSOrigins:     getEnvAsList("CORS_ORIGINS", []string{"*"}),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(getEnv("STORAGE_DRIVER", DriverSQLite)),
			SQLitePath:  getEnv("SQLITE_PATH", "data/crm.db"),
			PostgresURL: getEnv("DATABASE_URL", ""),
			SeedPath:    getEnv("SEED_PATH", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
		FluentBit: FluentBitConfig{
			Enabled:   getEnvAsBool("FLUENTBIT_ENABLED", false),
			Host:      getEnv("FLUENTBIT_HOST", "127.0.0.1"),
			Port:      getEnvAsInt("FLUENTBIT_PORT", 24224),
			TagPrefix: getEnv("FLUENTBIT_TAG_PREFIX", appName),
			Level:     getEnv("FLUENTBIT_LOG_LEVEL", "info"),
		},
		Notify: NotifyConfig{
			AMQPURL:    getEnv("AMQP_URL", ""),
			Exchange:   getEnv("AMQP_EXCHANGE", "crm.matches"),
			MinScore:   getEnvAsInt("NOTIFY_MIN_SCORE", 80),
			MaxMatches: getEnvAsInt("NOTIFY_MAX_MATCHES", 10),
		},
		Match: MatchConfig{
			DefaultLimit: getEnvAsInt("MATCH_DEFAULT_LIMIT", 20),
		},
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	if c.Notify.MinScore < 0 || c.Notify.MinScore > 100 {
		return fmt.Errorf("NOTIFY_MIN_SCORE must be within 0..100, got %d", c.Notify.MinScore)
	}
	if c.Match.DefaultLimit <= 0 {
		return fmt.Errorf("MATCH_DEFAULT_LIMIT must be positive, got %d", c.Match.DefaultLimit)
	}
	if c.FluentBit.Enabled && c.FluentBit.Host == "" {
		return fmt.Errorf("FLUENTBIT_HOST is required when FLUENTBIT_ENABLED is true")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("env %s=%q is not an int, using %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("env %s=%q is not a bool, using %t", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
