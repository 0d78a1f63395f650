// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the upload server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the HTTP endpoint.
//   - UploadDir: root directory for final files and staging areas.
//   - MaxChunkBytes: upper bound for one chunk body; 0 disables the check.
//   - LogLevel: debug, info, warn or error.
//   - StagingTTL / SweepInterval: orphan staging sweep; zero disables it.
//   - DatabaseDSN: PostgreSQL DSN (pgx) for the upload registry; empty keeps
//     the registry in memory.
//   - S3*: object storage mirror of merged files; empty bucket disables it.
type Config struct {
	EndpointAddrHTTP string
	UploadDir        string
	MaxChunkBytes    int64
	LogLevel         string
	StagingTTL       time.Duration
	SweepInterval    time.Duration
	DatabaseDSN      string
	S3RootUser       string
	S3RootPassword   string
	S3Bucket         string
	S3Region         string
	S3BaseEndpoint   string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":3000"
	c.UploadDir = "target"
	c.MaxChunkBytes = 64 * 1024 * 1024
	c.LogLevel = "info"
	c.StagingTTL = 0
	c.SweepInterval = 0
	c.DatabaseDSN = ""
	c.S3RootUser = ""
	c.S3RootPassword = ""
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
