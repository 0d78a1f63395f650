// Package services implements the server side of the chunked upload
// protocol on top of the chunk store and the upload registry.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/bigupload/internal/chunking"
	"github.com/dmitrijs2005/bigupload/internal/common"
	"github.com/dmitrijs2005/bigupload/internal/dbx"
	"github.com/dmitrijs2005/bigupload/internal/filex"
	"github.com/dmitrijs2005/bigupload/internal/logging"
	"github.com/dmitrijs2005/bigupload/internal/server/models"
	"github.com/dmitrijs2005/bigupload/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bigupload/internal/server/storage"
	"github.com/gabriel-vasile/mimetype"
)

// Mirror receives a copy of every merged file.
type Mirror interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
}

type UploadService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	store         *storage.ChunkStore
	mirror        Mirror
	locks         *keyedLocker
	logger        logging.Logger
	maxChunkBytes int64
}

// NewUploadService wires the service. db may be nil for the in-memory
// registry and mirror may be nil to disable mirroring. maxChunkBytes of zero
// accepts chunks of any size.
func NewUploadService(db *sql.DB, rm repomanager.RepositoryManager, store *storage.ChunkStore, mirror Mirror, logger logging.Logger, maxChunkBytes int64) *UploadService {
	return &UploadService{
		db:            db,
		repomanager:   rm,
		store:         store,
		mirror:        mirror,
		locks:         newKeyedLocker(),
		logger:        logger.With("module", "upload_service"),
		maxChunkBytes: maxChunkBytes,
	}
}

type VerifyResult struct {
	ShouldUpload bool
	// UploadedList holds the chunk keys already staged, ordered by index.
	UploadedList []string
}

// Verify tells the client whether the file is already stored and, if not,
// which chunks it can skip. It has no side effects.
func (s *UploadService) Verify(ctx context.Context, fileHash, filename string) (*VerifyResult, error) {
	id, err := chunking.ParseIdentity(fileHash)
	if err != nil {
		return nil, err
	}
	ext := filex.ExtractExt(filename)

	exists, err := s.store.FinalExists(id, ext)
	if err != nil {
		return nil, err
	}
	if exists {
		return &VerifyResult{ShouldUpload: false}, nil
	}

	chunks, err := s.store.ListChunks(id)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(chunks))
	for _, c := range chunks {
		keys = append(keys, c.Key)
	}
	return &VerifyResult{ShouldUpload: true, UploadedList: keys}, nil
}

type ChunkUpload struct {
	Filename string
	FileHash string
	ChunkKey string
	Body     io.Reader
}

// IngestChunk stages one chunk. Re-sending a chunk replaces it. Chunks for a
// file that has already been merged are discarded.
func (s *UploadService) IngestChunk(ctx context.Context, in ChunkUpload) (int64, error) {
	id, err := chunking.ParseIdentity(in.FileHash)
	if err != nil {
		return 0, err
	}
	owner, index, err := chunking.ParseChunkKey(in.ChunkKey)
	if err != nil {
		return 0, err
	}
	if owner != id {
		return 0, fmt.Errorf("chunk key %q does not belong to %s: %w", in.ChunkKey, id, common.ErrProtocol)
	}
	if in.Body == nil {
		return 0, fmt.Errorf("chunk %s has no body: %w", in.ChunkKey, common.ErrProtocol)
	}

	exists, err := s.store.FinalExists(id, filex.ExtractExt(in.Filename))
	if err != nil {
		return 0, err
	}
	if exists {
		s.logger.Debug(ctx, "chunk for merged file ignored", "file_hash", id, "chunk_key", in.ChunkKey)
		return 0, nil
	}

	n, err := s.store.WriteChunk(ctx, id, index, in.Body, s.maxChunkBytes)
	if err != nil {
		s.logger.Warn(ctx, "chunk rejected", "file_hash", id, "chunk_key", in.ChunkKey, "error", err)
		return n, err
	}
	s.logger.Debug(ctx, "chunk stored", "file_hash", id, "chunk_key", in.ChunkKey, "size", n)
	return n, nil
}

type MergeRequest struct {
	Filename  string
	FileHash  string
	ChunkSize int64
	// FileSize is optional; when set it pins the expected chunk count and
	// the final size.
	FileSize *int64
}

type MergeResult struct {
	FileHash       string
	Ext            string
	Size           int64
	MimeType       string
	AlreadyExisted bool
}

// Merge assembles the staged chunks of a file into its final location and
// removes the staging area. At most one merge per identity runs at a time;
// a concurrent call fails with common.ErrConcurrencyConflict. Any failure
// before the final file is committed leaves the staged chunks in place so
// the merge can be retried.
//
// Once started, assembly and the registry and mirror writes run to
// completion even if ctx is cancelled.
func (s *UploadService) Merge(ctx context.Context, req MergeRequest) (*MergeResult, error) {
	id, err := chunking.ParseIdentity(req.FileHash)
	if err != nil {
		return nil, err
	}
	if req.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size %d: %w", req.ChunkSize, common.ErrInvalidConfiguration)
	}
	if req.FileSize != nil && *req.FileSize < 0 {
		return nil, fmt.Errorf("file size %d: %w", *req.FileSize, common.ErrProtocol)
	}
	ext := filex.ExtractExt(req.Filename)
	log := s.logger.With("file_hash", id, "ext", ext)

	if !s.locks.TryLock(id.String()) {
		return nil, fmt.Errorf("merge of %s already running: %w", id, common.ErrConcurrencyConflict)
	}
	defer s.locks.Unlock(id.String())

	exists, err := s.store.FinalExists(id, ext)
	if err != nil {
		return nil, err
	}
	if exists {
		// a previous merge committed; only its cleanup may be outstanding
		s.cleanupStaging(ctx, log, id)
		size, err := s.store.FinalSize(id, ext)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "merge skipped, file already stored")
		return &MergeResult{FileHash: id.String(), Ext: ext, Size: size, AlreadyExisted: true}, nil
	}

	chunks, err := s.store.ListChunks(id)
	if err != nil {
		return nil, err
	}
	if err := validateChunks(chunks, req.ChunkSize, req.FileSize); err != nil {
		log.Warn(ctx, "merge refused", "chunks", len(chunks), "error", err)
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	log.Info(ctx, "merge started", "chunks", len(chunks), "chunk_size", req.ChunkSize)

	var size int64
	if len(chunks) == 0 {
		err = s.store.CreateEmptyFinal(id, ext)
	} else {
		size, err = s.store.Assemble(ctx, id, ext, chunks, req.ChunkSize)
	}
	if err != nil {
		log.Error(ctx, "merge failed, staged chunks kept", "error", err)
		return nil, err
	}

	s.cleanupStaging(ctx, log, id)

	res := &MergeResult{FileHash: id.String(), Ext: ext, Size: size, MimeType: s.detectMime(ctx, log, id, ext)}
	log.Info(ctx, "merge finished", "size", size, "mime_type", res.MimeType, "took", time.Since(start))

	s.afterMerge(ctx, log, &models.Upload{
		FileHash:  id.String(),
		Ext:       ext,
		Filename:  req.Filename,
		Size:      size,
		ChunkSize: req.ChunkSize,
		MimeType:  res.MimeType,
	})

	return res, nil
}

// validateChunks checks that chunks (sorted by index) form the complete
// file: indices 0..n-1 without gaps, full-size chunks except the last, and
// the expected count and total when fileSize is known.
func validateChunks(chunks []storage.StagedChunk, chunkSize int64, fileSize *int64) error {
	for i, c := range chunks {
		if c.Index != i {
			return fmt.Errorf("chunk %d missing: %w", i, common.ErrIncompleteUpload)
		}
	}

	if fileSize != nil {
		want := chunking.ChunkCount(*fileSize, chunkSize)
		if len(chunks) < want {
			return fmt.Errorf("%d of %d chunks staged: %w", len(chunks), want, common.ErrIncompleteUpload)
		}
		if len(chunks) > want {
			return fmt.Errorf("chunk %d beyond file size %d: %w", want, *fileSize, common.ErrProtocol)
		}
	} else if len(chunks) == 0 {
		return fmt.Errorf("no chunks staged: %w", common.ErrIncompleteUpload)
	}

	for i, c := range chunks {
		last := i == len(chunks)-1
		if !last && c.Size != chunkSize {
			return fmt.Errorf("chunk %s is %d bytes, want %d: %w", c.Key, c.Size, chunkSize, common.ErrProtocol)
		}
		if last && (c.Size <= 0 || c.Size > chunkSize) {
			return fmt.Errorf("last chunk %s is %d bytes: %w", c.Key, c.Size, common.ErrProtocol)
		}
		if last && fileSize != nil && int64(c.Index)*chunkSize+c.Size != *fileSize {
			return fmt.Errorf("chunks add up to %d bytes, want %d: %w",
				int64(c.Index)*chunkSize+c.Size, *fileSize, common.ErrProtocol)
		}
	}
	return nil
}

func (s *UploadService) cleanupStaging(ctx context.Context, log logging.Logger, id chunking.FileIdentity) {
	if err := s.store.RemoveStaging(id); err != nil {
		log.Warn(ctx, "staging cleanup failed", "error", err)
	}
}

func (s *UploadService) detectMime(ctx context.Context, log logging.Logger, id chunking.FileIdentity, ext string) string {
	f, err := s.store.OpenFinal(id, ext)
	if err != nil {
		log.Warn(ctx, "mime detection skipped", "error", err)
		return ""
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		log.Warn(ctx, "mime detection failed", "error", err)
		return ""
	}
	return mt.String()
}

// afterMerge records the upload and mirrors it. The final file is the
// source of truth, so failures here are logged and not returned.
func (s *UploadService) afterMerge(ctx context.Context, log logging.Logger, u *models.Upload) {
	if err := s.record(ctx, u); err != nil {
		log.Error(ctx, "upload registry write failed", "error", err)
	}

	if s.mirror == nil {
		return
	}
	id := chunking.FileIdentity(u.FileHash)
	f, err := s.store.OpenFinal(id, u.Ext)
	if err != nil {
		log.Error(ctx, "mirror skipped", "error", err)
		return
	}
	defer f.Close()

	if err := s.mirror.Put(ctx, u.StorageKey(), f, u.Size, u.MimeType); err != nil {
		log.Error(ctx, "mirror upload failed", "key", u.StorageKey(), "error", err)
		return
	}
	log.Info(ctx, "mirrored", "key", u.StorageKey())
}

func (s *UploadService) record(ctx context.Context, u *models.Upload) error {
	if s.db == nil {
		return s.repomanager.Uploads(nil).Record(ctx, u)
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Uploads(tx).Record(ctx, u)
	})
}

// Lookup returns the registry records for fileHash.
func (s *UploadService) Lookup(ctx context.Context, fileHash string) ([]*models.Upload, error) {
	id, err := chunking.ParseIdentity(fileHash)
	if err != nil {
		return nil, err
	}
	recs, err := s.repomanager.Uploads(s.db).ListByHash(ctx, id.String())
	if err != nil {
		return nil, fmt.Errorf("registry lookup: %w: %w", common.ErrIO, err)
	}
	if len(recs) == 0 {
		return nil, common.ErrorNotFound
	}
	return recs, nil
}

// IsClientError reports whether err stems from the request rather than the
// server.
func IsClientError(err error) bool {
	return errors.Is(err, common.ErrProtocol) ||
		errors.Is(err, common.ErrInvalidConfiguration) ||
		errors.Is(err, common.ErrIncompleteUpload) ||
		errors.Is(err, common.ErrConcurrencyConflict)
}
