package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/bigupload/internal/api"
	"github.com/dmitrijs2005/bigupload/internal/chunking"
	"github.com/dmitrijs2005/bigupload/internal/client/client"
	"github.com/dmitrijs2005/bigupload/internal/common"
	"github.com/dmitrijs2005/bigupload/internal/logging"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const defaultBackoff = 200 * time.Millisecond

type Phase int

const (
	PhaseHashing Phase = iota
	PhaseUploading
	PhaseMerging
)

func (p Phase) String() string {
	switch p {
	case PhaseHashing:
		return "hashing"
	case PhaseUploading:
		return "uploading"
	case PhaseMerging:
		return "merging"
	default:
		return "unknown"
	}
}

// Progress is reported to the caller's callback. Callbacks are never
// invoked concurrently, and Percent never decreases within a phase.
type Progress struct {
	Phase   Phase
	Percent float64
}

type Options struct {
	ChunkSize   int64
	Parallelism int
	// Retries is the number of extra attempts per request.
	Retries int
	// Backoff is the first retry delay; it doubles on every attempt.
	Backoff time.Duration
}

type Result struct {
	FileHash string
	Size     int64
	Chunks   int
	Uploaded int
	Skipped  int
	// AlreadyStored is set when the server had the whole file before this
	// call.
	AlreadyStored bool
	MimeType      string
}

type UploadService interface {
	Upload(ctx context.Context, path string, onProgress func(Progress)) (*Result, error)
}

type uploadService struct {
	client client.Client
	fs     afero.Fs
	logger logging.Logger
	opts   Options
}

func NewUploadService(c client.Client, fs afero.Fs, l logging.Logger, opts Options) UploadService {
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	return &uploadService{client: c, fs: fs, logger: l.With("module", "upload_client"), opts: opts}
}

func (s *uploadService) Upload(ctx context.Context, path string, onProgress func(Progress)) (*Result, error) {
	if s.opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size %d: %w", s.opts.ChunkSize, common.ErrInvalidConfiguration)
	}

	var mu sync.Mutex
	report := func(p Progress) {
		if onProgress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		onProgress(p)
	}

	size, chunks, id, err := s.hash(path, report)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(path)
	log := s.logger.With("file_hash", id, "file", filename)
	res := &Result{FileHash: id.String(), Size: size, Chunks: len(chunks)}

	var verified *api.VerifyResponse
	err = s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		verified, err = s.client.Verify(ctx, id.String(), filename)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	if !verified.ShouldUpload {
		log.Info(ctx, "file already stored")
		res.AlreadyStored = true
		res.Skipped = len(chunks)
		report(Progress{Phase: PhaseUploading, Percent: 100})
		return res, nil
	}

	pending := missingChunks(id, chunks, verified.UploadedList)
	res.Skipped = len(chunks) - len(pending)
	log.Info(ctx, "uploading", "chunks", len(chunks), "skipped", res.Skipped)

	if err := s.sendChunks(ctx, path, filename, id, pending, res.Skipped, len(chunks), report); err != nil {
		return nil, err
	}
	res.Uploaded = len(pending)

	report(Progress{Phase: PhaseMerging, Percent: 0})
	var merged *api.MergeResponse
	err = s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		merged, err = s.client.Merge(ctx, api.MergeRequest{
			Filename: filename,
			FileHash: id.String(),
			Size:     s.opts.ChunkSize,
			FileSize: &size,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	report(Progress{Phase: PhaseMerging, Percent: 100})

	res.MimeType = merged.MimeType
	log.Info(ctx, "upload finished", "size", merged.Size, "mime_type", merged.MimeType)
	return res, nil
}

func (s *uploadService) hash(path string, report func(Progress)) (int64, []chunking.Descriptor, chunking.FileIdentity, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return 0, nil, "", fmt.Errorf("open %s: %w: %w", path, common.ErrIO, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, nil, "", fmt.Errorf("stat %s: %w: %w", path, common.ErrIO, err)
	}
	if info.IsDir() {
		return 0, nil, "", fmt.Errorf("%s is a directory: %w", path, common.ErrInvalidConfiguration)
	}

	chunks, err := chunking.Split(info.Size(), s.opts.ChunkSize)
	if err != nil {
		return 0, nil, "", err
	}

	events, err := chunking.NewHasher(f, chunks).Start()
	if err != nil {
		return 0, nil, "", err
	}
	id, err := chunking.Wait(events, func(p float64) {
		report(Progress{Phase: PhaseHashing, Percent: p})
	})
	if err != nil {
		return 0, nil, "", err
	}
	return info.Size(), chunks, id, nil
}

func missingChunks(id chunking.FileIdentity, chunks []chunking.Descriptor, uploaded []string) []chunking.Descriptor {
	have := make(map[string]struct{}, len(uploaded))
	for _, k := range uploaded {
		have[k] = struct{}{}
	}
	var out []chunking.Descriptor
	for _, c := range chunks {
		if _, ok := have[id.ChunkKey(c.Index)]; !ok {
			out = append(out, c)
		}
	}
	return out
}

func (s *uploadService) sendChunks(ctx context.Context, path, filename string, id chunking.FileIdentity,
	pending []chunking.Descriptor, done, total int, report func(Progress)) error {

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Parallelism)

	for _, c := range pending {
		g.Go(func() error {
			key := id.ChunkKey(c.Index)
			err := s.withRetry(gctx, func(ctx context.Context) error {
				return s.sendChunk(ctx, path, filename, id, key, c)
			})
			if err != nil {
				return fmt.Errorf("chunk %s: %w", key, err)
			}

			mu.Lock()
			done++
			p := Progress{Phase: PhaseUploading, Percent: 100 * float64(done) / float64(total)}
			report(p)
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

// sendChunk opens its own handle so parallel uploads never share a read
// offset.
func (s *uploadService) sendChunk(ctx context.Context, path, filename string, id chunking.FileIdentity, key string, c chunking.Descriptor) error {
	f, err := s.fs.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w: %w", path, common.ErrIO, err)
	}
	defer f.Close()

	return s.client.UploadChunk(ctx, id.String(), filename, key, io.NewSectionReader(f, c.Start, c.Size))
}

func (s *uploadService) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(uint64(s.opts.Retries), retry.NewExponential(s.opts.Backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := op(ctx)
		if err != nil && retryable(err) {
			s.logger.Debug(ctx, "retrying", "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

func retryable(err error) bool {
	return errors.Is(err, client.ErrUnavailable) ||
		errors.Is(err, common.ErrIO) ||
		errors.Is(err, common.ErrConcurrencyConflict)
}
