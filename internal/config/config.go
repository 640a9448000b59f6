package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dealintake/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Storage    StorageConfig
	Parser     ParserConfig
	Dedupe     DedupeConfig
	Matching   MatchingConfig
	Contacts   ContactsConfig
	Logging    LoggingConfig

	// Warnings collects values that could not be parsed and fell back to defaults
	Warnings []string `validate:"-"`
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, wins over the fields below
	Host               string
	Port               int `validate:"min=1,max=65535"`
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int `validate:"min=1"`
	MaxIdleConnections int `validate:"min=0"`
	AutoMigrate        bool
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int `validate:"min=1,max=65535"`
	Host           string
	GinMode        string `validate:"oneof=debug release test"`
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Driver   string `validate:"oneof=memory postgres"`
	SeedFile string // JSON seed for the memory driver
}

// ParserConfig holds extraction configuration
type ParserConfig struct {
	PatternsFile     string
	MinSegmentLength int `validate:"min=1"`
}

// DedupeConfig holds duplicate classification configuration
type DedupeConfig struct {
	Threshold         float64 `validate:"gt=0,lte=100"`
	HistoryWindowDays int     `validate:"min=1"`
	PruneInterval     time.Duration
}

// MatchingConfig holds inventory matching configuration
type MatchingConfig struct {
	MinScore int `validate:"min=0,max=100"`
	TopN     int `validate:"min=1"`
}

// ContactsConfig holds contact directory configuration
type ContactsConfig struct {
	RefreshInterval time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

var validate = validator.New()

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	l := &loader{}
	dsn := l.getEnv("DATABASE_URL", l.getEnv("POSTGRESQL_URI", l.getEnv("PG_DSN", "")))
	defaultDriver := StorageMemory
	if dsn != "" {
		defaultDriver = StoragePostgres
	}

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                dsn,
			Host:               l.getEnv("PG_HOST", "localhost"),
			Port:               l.getEnvAsInt("PG_PORT", 5432),
			User:               l.getEnv("PG_USER", "postgres"),
			Password:           l.getEnv("PG_PASSWORD", ""),
			Database:           l.getEnv("PG_DATABASE", "dealintake"),
			SSLMode:            l.getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     l.getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: l.getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
			AutoMigrate:        l.getEnvAsBool("PG_AUTO_MIGRATE", true),
		},
		Server: ServerConfig{
			Port:           l.getEnvAsInt("SERVER_PORT", 8080),
			Host:           l.getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        l.getEnv("GIN_MODE", "release"),
			AllowedOrigins: l.getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: l.getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,OPTIONS"),
			AllowedHeaders: l.getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization,X-Request-ID"),
		},
		Storage: StorageConfig{
			Driver:   strings.ToLower(l.getEnv("STORAGE_DRIVER", defaultDriver)),
			SeedFile: l.getEnv("SEED_FILE", ""),
		},
		Parser: ParserConfig{
			PatternsFile:     l.getEnv("PATTERNS_FILE", ""),
			MinSegmentLength: l.getEnvAsInt("MIN_SEGMENT_LENGTH", 10),
		},
		Dedupe: DedupeConfig{
			Threshold:         l.getEnvAsFloat("DUPLICATE_THRESHOLD", 95),
			HistoryWindowDays: l.getEnvAsInt("HISTORY_WINDOW_DAYS", 30),
			PruneInterval:     time.Duration(l.getEnvAsInt("HISTORY_PRUNE_MINUTES", 60)) * time.Minute,
		},
		Matching: MatchingConfig{
			MinScore: l.getEnvAsInt("MATCH_MIN_SCORE", 15),
			TopN:     l.getEnvAsInt("MATCH_TOP_N", 5),
		},
		Contacts: ContactsConfig{
			RefreshInterval: time.Duration(l.getEnvAsInt("CONTACT_REFRESH_SECONDS", 60)) * time.Second,
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(l.getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(l.getEnv("LOG_FORMAT", "json")),
		},
	}
	cfg.Warnings = l.warnings

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
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

// HistoryWindow is the dedupe look-back as a duration
func (c *Config) HistoryWindow() time.Duration {
	return time.Duration(c.Dedupe.HistoryWindowDays) * 24 * time.Hour
}

// LoadPatternFile decodes a YAML pattern override:
//
//	cities: [Ludhiana, Jalandhar]
//	localities: [Model Town]
//	typeKeywords:
//	  Commercial: [godown]
func LoadPatternFile(path string) (*model.PatternOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern file: %w", err)
	}
	var override model.PatternOverride
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to decode pattern file %s: %w", path, err)
	}
	return &override, nil
}

// Helper functions

type loader struct {
	warnings []string
}

func (l *loader) getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func (l *loader) getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		l.warnings = append(l.warnings, fmt.Sprintf("invalid integer value for %s, using default %d", key, defaultValue))
		return defaultValue
	}
	return value
}

func (l *loader) getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		l.warnings = append(l.warnings, fmt.Sprintf("invalid float value for %s, using default %g", key, defaultValue))
		return defaultValue
	}
	return value
}

func (l *loader) getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		l.warnings = append(l.warnings, fmt.Sprintf("invalid boolean value for %s, using default %t", key, defaultValue))
		return defaultValue
	}
	return value
}
