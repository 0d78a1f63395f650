package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/bigupload/internal/flagx"
	"github.com/dmitrijs2005/bigupload/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Durations
// accept "90s" style strings or integer nanoseconds. Absent keys keep the
// value already in Config.
type JsonConfig struct {
	EndpointAddrHTTP *string         `json:"endpoint_addr_http"`
	UploadDir        *string         `json:"upload_dir"`
	MaxChunkBytes    *int64          `json:"max_chunk_bytes"`
	LogLevel         *string         `json:"log_level"`
	StagingTTL       *timex.Duration `json:"staging_ttl"`
	SweepInterval    *timex.Duration `json:"sweep_interval"`
	DatabaseDSN      *string         `json:"database_dsn"`
	S3RootUser       *string         `json:"s3_root_user"`
	S3RootPassword   *string         `json:"s3_root_password"`
	S3Bucket         *string         `json:"s3_bucket"`
	S3Region         *string         `json:"s3_region"`
	S3BaseEndpoint   *string         `json:"s3_base_endpoint"`
}

// parseJson overlays config with the JSON file named by -c/-config in args.
// Without such a flag nothing happens. Read or decode errors panic.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.JsonConfigFlags(args)
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setIf(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setIf(&config.UploadDir, c.UploadDir)
	setIf(&config.MaxChunkBytes, c.MaxChunkBytes)
	setIf(&config.LogLevel, c.LogLevel)
	if c.StagingTTL != nil {
		config.StagingTTL = c.StagingTTL.Duration
	}
	if c.SweepInterval != nil {
		config.SweepInterval = c.SweepInterval.Duration
	}
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.S3RootUser, c.S3RootUser)
	setIf(&config.S3RootPassword, c.S3RootPassword)
	setIf(&config.S3Bucket, c.S3Bucket)
	setIf(&config.S3Region, c.S3Region)
	setIf(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
