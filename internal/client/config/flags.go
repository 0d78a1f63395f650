package config

import (
	"flag"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/bigupload/internal/flagx"
)

var allowedFlags = []string{"-a", "-k", "-n", "-r", "-t", "-l", "-f"}

// parseFlags populates selected Config fields from command-line flags. args
// are filtered with flagx.FilterArgs first. Parse failures panic.
func parseFlags(cfg *Config, args []string) {
	filtered := flagx.FilterArgs(args, allowedFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "upload server base URL")
	fs.Int64Var(&cfg.ChunkSize, "k", cfg.ChunkSize, "chunk size in bytes")
	fs.IntVar(&cfg.Parallelism, "n", cfg.Parallelism, "parallel chunk uploads")
	fs.IntVar(&cfg.Retries, "r", cfg.Retries, "retries per chunk")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.FilePath, "f", cfg.FilePath, "file to upload")

	if err := fs.Parse(filtered); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second

	if cfg.FilePath == "" {
		cfg.FilePath = positional(args)
	}
}

// positional returns the last argument that is neither a flag nor a flag
// value.
func positional(args []string) string {
	last := ""
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
			}
			continue
		}
		last = a
	}
	return last
}
