// config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	SymXchange     SymXchangeConfig
	Redis          RedisConfig
	Reconciliation ReconciliationConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	URL      string // full connection string, takes precedence when set
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// SymXchangeConfig holds everything the bridge needs to talk to the core.
// An empty EndpointURL puts the bridge in mock mode.
type SymXchangeConfig struct {
	EndpointURL   string
	AdminPassword string
	DeviceType    string
	DeviceNumber  string
	CheckIssuer   string
	Timeout       time.Duration // zero means no client timeout
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type ReconciliationConfig struct {
	Interval  time.Duration
	BatchSize int
}

func Load(logger *zap.Logger) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8030"),
			Env:  getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "postgres"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		SymXchange: SymXchangeConfig{
			EndpointURL:   getEnv("SYMXCHANGE_ENDPOINT_URL", ""),
			AdminPassword: getEnv("SYMXCHANGE_ADMIN_PASSWORD", ""),
			DeviceType:    getEnv("SYMXCHANGE_DEVICE_TYPE", "CLIENTSYSTEM"),
			DeviceNumber:  getEnv("SYMXCHANGE_DEVICE_NUMBER", "20000"),
			CheckIssuer:   getEnv("SYMXCHANGE_CHECK_ISSUER", "Y12FCU"),
			Timeout:       getEnvDuration("SYMXCHANGE_TIMEOUT", 0),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Reconciliation: ReconciliationConfig{
			Interval:  getEnvDuration("RECONCILE_INTERVAL", time.Minute),
			BatchSize: getEnvInt("RECONCILE_BATCH_SIZE", 50),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.SymXchange.EndpointURL == "" {
		logger.Warn("SYMXCHANGE_ENDPOINT_URL is empty, core banking calls will be mocked")
	} else if cfg.SymXchange.AdminPassword == "" {
		logger.Warn("SYMXCHANGE_ADMIN_PASSWORD is empty, administrative credentials will be blank",
			zap.String("endpoint", cfg.SymXchange.EndpointURL))
	}

	if cfg.Redis.Host == "" {
		logger.Info("REDIS_HOST is empty, core banking events will not be published")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Reconciliation.Interval <= 0 {
		return fmt.Errorf("RECONCILE_INTERVAL must be positive, got %s", c.Reconciliation.Interval)
	}
	if c.Reconciliation.BatchSize <= 0 {
		return fmt.Errorf("RECONCILE_BATCH_SIZE must be positive, got %d", c.Reconciliation.BatchSize)
	}
	if c.SymXchange.Timeout < 0 {
		return fmt.Errorf("SYMXCHANGE_TIMEOUT must not be negative, got %s", c.SymXchange.Timeout)
	}
	return nil
}

// DSN returns the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.DBName,
		d.SSLMode,
	)
}

// Addr returns host:port for the redis client, or "" when redis is disabled.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		intVal, err := strconv.Atoi(value)
		if err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
