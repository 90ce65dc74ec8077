package config

import "codeberg.org/sharedcanvas/server/internal/storage"

const (
	DefaultPort           = "8080"
	DefaultEnvironment    = "development"
	DefaultDataDir        = "data"
	DefaultRedisKeyPrefix = "canvas:"
	DefaultAPIEndpoint    = "http://localhost:8080"
)

type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string
	Storage        storage.Options

	// bearer token for the canvas ops endpoints; empty restricts them to loopback callers
	OpsToken string
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// what canvasctl and the monitor need to reach a running server
type ClientConfig struct {
	Endpoint string
	OpsToken string
}

// canvasctl subcommand flags
type Flags struct {
	Endpoint string

	// backups
	Limit int

	// restore
	Index int

	// reset
	Yes bool
}
