package config

import (
	"time"

	"github.com/dmitrijs2005/bigupload/internal/common"
)

// Config holds runtime settings for the upload CLI.
type Config struct {
	ServerURL      string
	ChunkSize      int64
	Parallelism    int
	Retries        int
	RequestTimeout time.Duration
	LogLevel       string
	FilePath       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:3000"
	c.ChunkSize = common.DefaultChunkSize
	c.Parallelism = 4
	c.Retries = 3
	c.RequestTimeout = time.Minute
	c.LogLevel = "warn"
	c.FilePath = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
