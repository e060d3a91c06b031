package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Redis      RedisConfig
	Server     ServerConfig
	Search     SearchConfig
	OpenAI     OpenAIConfig
	Geocoding  GeocodingConfig
	Scheduler  SchedulerConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// RedisConfig holds the checkpoint store configuration
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	SessionTTL time.Duration
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// SearchConfig holds search-related configuration
type SearchConfig struct {
	ResultLimit   int
	BatchSize     int
	RadiusMeters  float64
	HistoryWindow int
}

// OpenAIConfig holds OpenAI-compatible API configuration
type OpenAIConfig struct {
	APIKey          string
	APIBase         string
	ChatModel       string
	ChatTemperature float64
	ChatMaxTokens   int
	EmbeddingModel  string
	Timeout         int
	Enabled         bool
}

// GeocodingConfig holds LocationIQ configuration
type GeocodingConfig struct {
	APIKey       string
	APIBase      string
	CountryCodes string
	Timeout      int
}

// SchedulerConfig holds the external scheduling webhook endpoints
type SchedulerConfig struct {
	SlotsURL   string
	BookingURL string
	Timeout    int
	MaxDays    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "proppanda"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", "localhost:6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			SessionTTL: time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 72)) * time.Hour,
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		Search: SearchConfig{
			ResultLimit:   getEnvAsInt("SEARCH_RESULT_LIMIT", 10),
			BatchSize:     getEnvAsInt("SEARCH_BATCH_SIZE", 3),
			RadiusMeters:  getEnvAsFloat("SEARCH_RADIUS_METERS", 3000),
			HistoryWindow: getEnvAsInt("CHAT_HISTORY_WINDOW", 7),
		},
		OpenAI: OpenAIConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			APIBase:         getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			ChatModel:       getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			ChatTemperature: getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.3),
			ChatMaxTokens:   getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 2048),
			EmbeddingModel:  getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			Timeout:         getEnvAsInt("OPENAI_TIMEOUT", 30),
			Enabled:         getEnv("OPENAI_API_KEY", "") != "",
		},
		Geocoding: GeocodingConfig{
			APIKey:       getEnv("LOCATIONIQ_API_KEY", ""),
			APIBase:      getEnv("LOCATIONIQ_API_BASE", "https://us1.locationiq.com/v1"),
			CountryCodes: getEnv("GEOCODE_COUNTRY_CODES", "sg"),
			Timeout:      getEnvAsInt("GEOCODE_TIMEOUT", 10),
		},
		Scheduler: SchedulerConfig{
			SlotsURL:   getEnv("SCHEDULER_SLOTS_URL", ""),
			BookingURL: getEnv("SCHEDULER_BOOKING_URL", ""),
			Timeout:    getEnvAsInt("SCHEDULER_TIMEOUT", 20),
			MaxDays:    getEnvAsInt("SCHEDULER_MAX_DAYS", 5),
		},
	}

	return cfg, nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}
