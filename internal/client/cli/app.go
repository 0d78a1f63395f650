package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/bigupload/internal/client/client"
	"github.com/dmitrijs2005/bigupload/internal/client/config"
	"github.com/dmitrijs2005/bigupload/internal/client/services"
	"github.com/dmitrijs2005/bigupload/internal/common"
	"github.com/dmitrijs2005/bigupload/internal/logging"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"golang.org/x/term"
)

type App struct {
	config  *config.Config
	uploads services.UploadService
	out     io.Writer
	// interactive redraws a single progress line instead of printing
	// phase changes.
	interactive bool
}

func NewApp(c *config.Config) (*App, error) {
	if c.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size %d: %w", c.ChunkSize, common.ErrInvalidConfiguration)
	}

	logger := logging.New(os.Stderr, c.LogLevel)
	apiClient := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)

	us := services.NewUploadService(apiClient, afero.NewOsFs(), logger, services.Options{
		ChunkSize:   c.ChunkSize,
		Parallelism: c.Parallelism,
		Retries:     c.Retries,
	})

	return &App{
		config:      c,
		uploads:     us,
		out:         os.Stdout,
		interactive: term.IsTerminal(int(os.Stdout.Fd())),
	}, nil
}

// Run uploads the configured file and prints a summary.
func (a *App) Run(ctx context.Context) error {
	if a.config.FilePath == "" {
		return fmt.Errorf("no file given, usage: client [-a url] [-k chunk bytes] [-n parallel] file: %w", common.ErrInvalidConfiguration)
	}

	start := time.Now()
	pr := newProgressPrinter(a.out, a.interactive)

	res, err := a.uploads.Upload(ctx, a.config.FilePath, pr.update)
	pr.finish()
	if err != nil {
		return err
	}

	took := time.Since(start)
	if res.AlreadyStored {
		fmt.Fprintf(a.out, "%s already on server (%s)\n", res.FileHash, humanize.IBytes(uint64(res.Size)))
		return nil
	}

	fmt.Fprintf(a.out, "uploaded %s as %s: %d of %d chunks sent, %d resumed, took %s",
		humanize.IBytes(uint64(res.Size)), res.FileHash, res.Uploaded, res.Chunks, res.Skipped, took.Round(time.Millisecond))
	if secs := took.Seconds(); secs > 0 && res.Uploaded > 0 {
		fmt.Fprintf(a.out, " (%s/s)", humanize.IBytes(uint64(float64(res.Size)/secs)))
	}
	fmt.Fprintln(a.out)
	if res.MimeType != "" {
		fmt.Fprintf(a.out, "type: %s\n", res.MimeType)
	}
	return nil
}
