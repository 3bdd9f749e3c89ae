package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the service configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	MessageBus    MessageBusConfig
	NewRelic      NewRelicConfig
	Elasticsearch ElasticsearchConfig
	Gemini        GeminiConfig
	Compliance    ComplianceConfig
	Logging       LoggingConfig
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsWhiteList   []string
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConn  int
	MaxIdle  int
	MaxLife  time.Duration
	Timeout  time.Duration
	Retries  int
	Debug    bool
}

// RedisConfig holds the Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// MessageBusConfig holds the Azure Service Bus configuration
type MessageBusConfig struct {
	Enabled          bool
	ConnectionString string
	Prefix           string
	AlertQueue       string
}

// NewRelicConfig holds the New Relic configuration
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// ElasticsearchConfig holds the Elasticsearch configuration
type ElasticsearchConfig struct {
	Enabled    bool
	URLs       []string
	Username   string
	Password   string
	AuditIndex string
}

// GeminiConfig holds the AI extraction configuration
type GeminiConfig struct {
	APIKey string
	Model  string
}

// ComplianceConfig holds the compliance rule configuration
type ComplianceConfig struct {
	// WarningDays is the exclusive upper bound of the expiring-soon window:
	// a document expiring in exactly WarningDays days is still compliant.
	WarningDays int
}

// LoggingConfig holds the logging configuration
type LoggingConfig struct {
	Level string
	JSON  bool
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Optional .env for local development
	_ = godotenv.Load()

	// Server
	port, _ := strconv.Atoi(getEnv("PORT", "8096"))

	// Database
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	dbMaxConn, _ := strconv.Atoi(getEnv("DB_MAX_CONN", "20"))
	dbMaxIdle, _ := strconv.Atoi(getEnv("DB_MAX_IDLE", "5"))
	dbRetries, _ := strconv.Atoi(getEnv("DB_RETRIES", "3"))
	dbDebug, _ := strconv.ParseBool(getEnv("DB_DEBUG", "false"))

	// Redis
	redisEnabled, _ := strconv.ParseBool(getEnv("REDIS_ENABLED", "true"))
	redisPort, _ := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	// Message bus
	sbConnection := getEnv("SERVICEBUS_CONNECTION_STRING", "")

	// New Relic
	nrEnabled, _ := strconv.ParseBool(getEnv("NEW_RELIC_ENABLED", "false"))

	// Elasticsearch
	esEnabled, _ := strconv.ParseBool(getEnv("ES_ENABLED", "false"))
	esURLs := []string{getEnv("ES_URL", "http://localhost:9200")}

	// Compliance
	warningDays, _ := strconv.Atoi(getEnv("COMPLIANCE_WARNING_DAYS", "30"))
	if warningDays <= 0 {
		warningDays = 30
	}

	// Logging
	logJSON, _ := strconv.ParseBool(getEnv("LOG_JSON", "true"))

	return &Config{
		Server: ServerConfig{
			Host:            getEnv("HOST", "0.0.0.0"),
			Port:            port,
			ReadTimeout:     getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsWhiteList:   []string{getEnv("CORS_ORIGIN", "*")},
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "fleetdocs_db"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConn:  dbMaxConn,
			MaxIdle:  dbMaxIdle,
			MaxLife:  getDuration("DB_MAX_LIFE", time.Hour),
			Timeout:  getDuration("DB_TIMEOUT", 5*time.Second),
			Retries:  dbRetries,
			Debug:    dbDebug,
		},
		Redis: RedisConfig{
			Enabled:  redisEnabled,
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     redisPort,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		MessageBus: MessageBusConfig{
			Enabled:          sbConnection != "",
			ConnectionString: sbConnection,
			Prefix:           getEnv("SERVICEBUS_PREFIX", ""),
			AlertQueue:       getEnv("SERVICEBUS_ALERT_QUEUE", "compliance-alerts"),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "Fleet Compliance"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    nrEnabled,
		},
		Elasticsearch: ElasticsearchConfig{
			Enabled:    esEnabled,
			URLs:       esURLs,
			Username:   getEnv("ES_USERNAME", ""),
			Password:   getEnv("ES_PASSWORD", ""),
			AuditIndex: getEnv("ES_AUDIT_INDEX", "fleetdocs-audit"),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		},
		Compliance: ComplianceConfig{
			WarningDays: warningDays,
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			JSON:  logJSON,
		},
	}, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getDuration gets a duration environment variable or returns a default value
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
