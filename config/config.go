package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// Provider endpoints. Overridable so tests can point them at local servers.
	OpenAIAPIURL  string
	RecraftAPIURL string
	FluxAPIURL    string
	WinstonAPIURL string

	// ProxyBaseURL is where the plagiarism checker reaches our own proxy
	// endpoint. Defaults to the local server.
	ProxyBaseURL string

	// Provider secret keys. A missing key makes the owning service report
	// "not configured" instead of attempting a network call; the server can
	// still boot with a partial provider set.
	OpenAIKey  string
	RecraftKey string
	FluxKey    string
	WinstonKey string
}

// LoadConfig creates a new Config instance from environment variables.
// Provider keys support the _FILE convention for Docker secrets.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		ServerHost: getEnv("SERVER_HOST", "0.0.0.0"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "chefscript"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisURL:      os.Getenv("REDIS_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		OpenAIAPIURL:  getEnv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
		RecraftAPIURL: getEnv("RECRAFT_API_URL", "https://external.api.recraft.ai/v1"),
		FluxAPIURL:    getEnv("FLUX_API_URL", "https://api.bfl.ml/v1"),
		WinstonAPIURL: getEnv("WINSTON_API_URL", "https://api.gowinston.ai"),
		ProxyBaseURL:  os.Getenv("PROXY_BASE_URL"),
	}

	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB value %q: %w", dbStr, err)
		}
		cfg.RedisDB = db
	}

	cfg.OpenAIKey = readKey("OPENAI_API_KEY")
	cfg.RecraftKey = readKey("RECRAFT_API_KEY")
	cfg.FluxKey = readKey("FLUX_API_KEY")
	cfg.WinstonKey = readKey("WINSTON_API_KEY")

	if cfg.ProxyBaseURL == "" {
		cfg.ProxyBaseURL = fmt.Sprintf("http://localhost:%s", cfg.ServerPort)
	}

	return cfg, nil
}

// getEnv reads an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// readKey reads a secret from KEY or, failing that, from the file named by
// KEY_FILE. Returns "" when neither is set.
func readKey(name string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	if path := os.Getenv(name + "_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return ""
}
