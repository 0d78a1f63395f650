package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/bigupload/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-d string   upload root directory
//	-m int      max chunk size, bytes
//	-l string   log level
//	-s int      staging TTL, minutes (0 = no sweep)
//	-w int      sweep interval, minutes
//	-q string   PostgreSQL DSN
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// args are filtered with flagx.FilterArgs first so flags meant for other
// components do not cause parse errors. Parse failures panic.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-m", "-l", "-s", "-w", "-q", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.UploadDir, "d", config.UploadDir, "upload root directory")
	fs.Int64Var(&config.MaxChunkBytes, "m", config.MaxChunkBytes, "max chunk size in bytes")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	stagingTTL := fs.Int("s", int(config.StagingTTL.Minutes()), "staging TTL (in minutes, 0 disables sweep)")
	sweepInterval := fs.Int("w", int(config.SweepInterval.Minutes()), "sweep interval (in minutes)")

	fs.StringVar(&config.DatabaseDSN, "q", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.StagingTTL = time.Duration(*stagingTTL) * time.Minute
	config.SweepInterval = time.Duration(*sweepInterval) * time.Minute
}
