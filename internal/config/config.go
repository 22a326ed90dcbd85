package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the configuration for the memory service.
// Environment variables are parsed from the MEM_ prefix.
type Config struct {
	// DataDir is the root under which per-user hot and archive
	// directories are created on demand.
	DataDir string `envconfig:"DATA_DIR" default:"./data"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Retention policy
	MaxHotRecords int           `envconfig:"MAX_HOT_RECORDS" default:"50"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"24h"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// MCP server settings (mem-mcp binary only)
	MCPServerName    string        `envconfig:"MCP_SERVER_NAME" default:"mem-mcp"`
	MCPServerVersion string        `envconfig:"MCP_SERVER_VERSION" default:"0.1.0"`
	MCPHTTPAddr      string        `envconfig:"MCP_HTTP_ADDR" default:":11646"`
	ShutdownTimeout  time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	HTTPReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"5s"`
	HTTPIdleTimeout  time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"120s"`
}

// New loads configuration from the environment.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("mem", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
