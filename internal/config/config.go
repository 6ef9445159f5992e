// Package config загружает конфигурацию сервера из переменных окружения.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config конфигурация сервера
type Config struct {
	// Сервер
	Port string

	// База данных
	DatabasePath string

	// Папка для временных файлов загружаемых выгрузок
	UploadsDir string

	// Connection pooling
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// Ограничение частоты импортов (запросов в секунду и burst)
	ImportRatePerSec float64
	ImportRateBurst  int
}

// Load загружает конфигурацию из переменных окружения с разумными
// значениями по умолчанию.
func Load() (*Config, error) {
	config := &Config{
		Port:             getEnv("SERVER_PORT", "8080"),
		DatabasePath:     getEnv("DATABASE_PATH", "database.db"),
		UploadsDir:       getEnv("UPLOADS_DIR", "data/uploads"),
		MaxOpenConns:     getEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:     getEnvInt("DB_MAX_IDLE_CONNS", 3),
		ConnMaxLifetime:  getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		ImportRatePerSec: getEnvFloat("IMPORT_RATE_PER_SEC", 1),
		ImportRateBurst:  getEnvInt("IMPORT_RATE_BURST", 3),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.ImportRatePerSec <= 0 {
		return fmt.Errorf("import rate must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
