package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"codeberg.org/sharedcanvas/server/internal/storage"
	"github.com/joho/godotenv"
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	return FromEnvironment()
}

// builds the config from the current environment without reading .env
func FromEnvironment() (*Config, error) {
	cfg := &Config{
		Port:           getenv("PORT", DefaultPort),
		Environment:    getenv("ENVIRONMENT", DefaultEnvironment),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		Storage: storage.Options{
			Backend:        strings.ToLower(getenv("STORE_BACKEND", storage.BackendFile)),
			DataDir:        getenv("DATA_DIR", DefaultDataDir),
			RedisURL:       os.Getenv("REDIS_URL"),
			RedisKeyPrefix: getenv("REDIS_KEY_PREFIX", DefaultRedisKeyPrefix),
			DatabaseURL:    os.Getenv("DATABASE_URL"),
		},
		OpsToken: strings.TrimSpace(os.Getenv("OPS_TOKEN")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loads the client side of the configuration; the store settings are the server's concern
func LoadClientEnvironment() (*ClientConfig, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // .env is optional
	}

	return ClientFromEnvironment()
}

// builds the client config from the current environment without reading .env
func ClientFromEnvironment() (*ClientConfig, error) {
	cfg := &ClientConfig{
		Endpoint: getenv("CANVAS_API_ENDPOINT", DefaultAPIEndpoint),
		OpsToken: strings.TrimSpace(os.Getenv("OPS_TOKEN")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// checks that the endpoint is an absolute http(s) URL
func (c *ClientConfig) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid API endpoint %q: %w", c.Endpoint, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API endpoint %q: must be an http or https URL", c.Endpoint)
	}

	return nil
}

// checks that the selected backend has what it needs to connect
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case storage.BackendMemory, storage.BackendFile:
	case storage.BackendRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("REDIS_URL environment variable is required for the redis store")
		}
	case storage.BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required for the postgres store")
		}
	default:
		return fmt.Errorf("STORE_BACKEND %q: %w", c.Storage.Backend, storage.ErrUnknownBackend)
	}

	return nil
}

// checks what the HTTP server needs on top of Validate
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.IsProduction() && len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_ORIGINS environment variable is required in production")
	}

	return nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}

	return def
}

func splitList(raw string) []string {
	var out []string

	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
