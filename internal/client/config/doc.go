// Package config loads runtime configuration for the upload CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the upload server
//	-k int      chunk size, bytes
//	-n int      chunks uploaded in parallel
//	-r int      retries per chunk
//	-t int      per-request timeout (seconds)
//	-l string   log level
//	-f string   file to upload
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:3000",
//	  "chunk_size": 10485760,
//	  "parallelism": 4,
//	  "retries": 3,
//	  "request_timeout": "1m",
//	  "log_level": "warn"
//	}
//
// A bare positional argument is taken as the file when -f is not given.
package config
