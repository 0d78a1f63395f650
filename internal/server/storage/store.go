// Package storage keeps staged chunks and assembled files on an afero
// filesystem rooted at a configured upload directory.
//
// Layout:
//
//	<root>/<identity><ext>                final files
//	<root>/chunkDir_<identity>/<key>      staged chunks, key = <identity>-<index>
package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/bigupload/internal/chunking"
	"github.com/dmitrijs2005/bigupload/internal/common"
	"github.com/dmitrijs2005/bigupload/internal/filex"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// EmptyIdentity is the identity of a zero-length file.
const EmptyIdentity = chunking.FileIdentity("d41d8cd98f00b204e9800998ecf8427e")

// ErrChunkTooLarge is returned when a chunk body exceeds the write limit.
var ErrChunkTooLarge = fmt.Errorf("chunk too large: %w", common.ErrProtocol)

// StagedChunk describes one persisted chunk.
type StagedChunk struct {
	Key     string
	Index   int
	Size    int64
	ModTime time.Time
}

// StagingArea is a per-identity staging directory.
type StagingArea struct {
	Identity chunking.FileIdentity
	// LastActivity is the newest modification time of the directory or any
	// entry in it.
	LastActivity time.Time
}

// ChunkStore owns the on-disk layout of one upload root. It is safe for
// concurrent use; writes are made atomic by rename.
type ChunkStore struct {
	fs   afero.Fs
	root string
}

// NewChunkStore creates root on fs if needed.
//
// Parameters:
//
//	fs   filesystem holding staged chunks and final files
//	root upload directory; must not be empty
//
// Returns:
//
//	The store, common.ErrInvalidConfiguration for an empty root, or
//	common.ErrIO when root cannot be created.
func NewChunkStore(fs afero.Fs, root string) (*ChunkStore, error) {
	if root == "" {
		return nil, fmt.Errorf("empty upload root: %w", common.ErrInvalidConfiguration)
	}
	if err := filex.EnsureDir(fs, root); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIO, err)
	}
	return &ChunkStore{fs: fs, root: root}, nil
}

func (s *ChunkStore) Root() string {
	return s.root
}

func (s *ChunkStore) StagingDir(id chunking.FileIdentity) string {
	return filepath.Join(s.root, common.StagingDirPrefix+id.String())
}

func (s *ChunkStore) FinalPath(id chunking.FileIdentity, ext string) string {
	return filepath.Join(s.root, id.String()+ext)
}

func (s *ChunkStore) chunkPath(id chunking.FileIdentity, key string) string {
	return filepath.Join(s.StagingDir(id), key)
}

// FinalExists reports whether the assembled file for id and ext is present.
func (s *ChunkStore) FinalExists(id chunking.FileIdentity, ext string) (bool, error) {
	ok, err := filex.Exists(s.fs, s.FinalPath(id, ext))
	if err != nil {
		return false, fmt.Errorf("stat final file: %w: %w", common.ErrIO, err)
	}
	return ok, nil
}

// FinalSize returns the size of the assembled file.
func (s *ChunkStore) FinalSize(id chunking.FileIdentity, ext string) (int64, error) {
	fi, err := s.fs.Stat(s.FinalPath(id, ext))
	if err != nil {
		return 0, fmt.Errorf("stat final file: %w: %w", common.ErrIO, err)
	}
	return fi.Size(), nil
}

// OpenFinal opens the assembled file for reading.
func (s *ChunkStore) OpenFinal(id chunking.FileIdentity, ext string) (afero.File, error) {
	f, err := s.fs.Open(s.FinalPath(id, ext))
	if err != nil {
		return nil, fmt.Errorf("open final file: %w: %w", common.ErrIO, err)
	}
	return f, nil
}

// ListChunks returns the staged chunks of id sorted by numeric index. A
// missing staging directory yields an empty list. Entries that are not chunk
// keys of id (temp files, stray names) are skipped.
func (s *ChunkStore) ListChunks(id chunking.FileIdentity) ([]StagedChunk, error) {
	infos, err := afero.ReadDir(s.fs, s.StagingDir(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list staging: %w: %w", common.ErrIO, err)
	}

	out := make([]StagedChunk, 0, len(infos))
	for _, fi := range infos {
		if fi.IsDir() {
			continue
		}
		owner, index, err := chunking.ParseChunkKey(fi.Name())
		if err != nil || owner != id {
			continue
		}
		out = append(out, StagedChunk{Key: fi.Name(), Index: index, Size: fi.Size(), ModTime: fi.ModTime()})
	}

	slices.SortFunc(out, func(a, b StagedChunk) int { return a.Index - b.Index })
	return out, nil
}

// WriteChunk persists r as chunk index of id. The body is written to a
// temporary file in the staging directory and renamed into place, so a
// concurrent reader sees either the old chunk or the new one.
//
// Parameters:
//
//	ctx   a cancelled context discards the chunk after the copy
//	id    identity of the file the chunk belongs to
//	index position of the chunk in the file
//	r     chunk body
//	limit maximum body size in bytes; zero disables the check
//
// Returns:
//
//	The number of bytes read from r. A body over limit yields
//	ErrChunkTooLarge and leaves any previous copy of the chunk in place.
func (s *ChunkStore) WriteChunk(ctx context.Context, id chunking.FileIdentity, index int, r io.Reader, limit int64) (int64, error) {
	dir := s.StagingDir(id)
	if err := filex.EnsureDir(s.fs, dir); err != nil {
		return 0, fmt.Errorf("create staging: %w: %w", common.ErrIO, err)
	}

	key := id.ChunkKey(index)
	tmp := filepath.Join(dir, "."+key+"."+uuid.NewString()+".tmp")

	f, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return 0, fmt.Errorf("create temp chunk: %w: %w", common.ErrIO, err)
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}

	n, err := io.Copy(f, src)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	switch {
	case err != nil:
		_ = s.fs.Remove(tmp)
		return n, fmt.Errorf("write chunk %s: %w: %w", key, common.ErrIO, err)
	case limit > 0 && n > limit:
		_ = s.fs.Remove(tmp)
		return n, fmt.Errorf("chunk %s over %d bytes: %w", key, limit, ErrChunkTooLarge)
	case ctx.Err() != nil:
		_ = s.fs.Remove(tmp)
		return n, fmt.Errorf("write chunk %s: %w: %w", key, common.ErrIO, ctx.Err())
	}

	if err := s.fs.Rename(tmp, s.chunkPath(id, key)); err != nil {
		_ = s.fs.Remove(tmp)
		return n, fmt.Errorf("commit chunk %s: %w: %w", key, common.ErrIO, err)
	}
	return n, nil
}

// Assemble writes chunks into the final file for id, each at
// index*chunkSize. The output is built in a scratch file inside the staging
// directory and renamed into place only after every chunk has been copied
// and synced; on failure nothing is left at the final path and the staged
// chunks are untouched.
//
// Parameters:
//
//	ctx       checked between chunks; cancellation aborts the merge
//	id        identity of the file; the MD5 of the assembled bytes must match it
//	ext       extension of the final file, including the dot
//	chunks    staged chunks sorted by index
//	chunkSize size of every chunk but the last
//
// Returns:
//
//	The size of the assembled file. On a digest mismatch the error wraps
//	common.ErrIncompleteUpload; filesystem failures wrap common.ErrIO.
func (s *ChunkStore) Assemble(ctx context.Context, id chunking.FileIdentity, ext string, chunks []StagedChunk, chunkSize int64) (int64, error) {
	dir := s.StagingDir(id)
	if err := filex.EnsureDir(s.fs, dir); err != nil {
		return 0, fmt.Errorf("create staging: %w: %w", common.ErrIO, err)
	}

	part := filepath.Join(dir, ".merge-"+uuid.NewString()+".part")
	f, err := s.fs.OpenFile(part, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create merge target: %w: %w", common.ErrIO, err)
	}

	digest := md5.New()
	size, err := s.copyChunks(ctx, f, digest, id, chunks, chunkSize)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.fs.Remove(part)
		if errors.Is(err, common.ErrIO) {
			return 0, err
		}
		return 0, fmt.Errorf("merge %s: %w: %w", id, common.ErrIO, err)
	}

	if got := hex.EncodeToString(digest.Sum(nil)); got != id.String() {
		_ = s.fs.Remove(part)
		return 0, fmt.Errorf("staged chunks hash to %s, want %s: %w", got, id, common.ErrIncompleteUpload)
	}

	if err := s.fs.Rename(part, s.FinalPath(id, ext)); err != nil {
		_ = s.fs.Remove(part)
		return 0, fmt.Errorf("commit final file: %w: %w", common.ErrIO, err)
	}
	return size, nil
}

// copyChunks writes every chunk at its offset in dst and feeds the same
// bytes, in index order, to digest.
func (s *ChunkStore) copyChunks(ctx context.Context, dst afero.File, digest hash.Hash, id chunking.FileIdentity, chunks []StagedChunk, chunkSize int64) (int64, error) {
	var size int64
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		src, err := s.fs.Open(s.chunkPath(id, c.Key))
		if err != nil {
			return 0, fmt.Errorf("open chunk %s: %w: %w", c.Key, common.ErrIO, err)
		}

		offset := int64(c.Index) * chunkSize
		n, err := io.Copy(io.MultiWriter(io.NewOffsetWriter(dst, offset), digest), src)
		_ = src.Close()
		if err != nil {
			return 0, fmt.Errorf("copy chunk %s: %w: %w", c.Key, common.ErrIO, err)
		}
		if n != c.Size {
			return 0, fmt.Errorf("chunk %s changed size during merge (%d != %d): %w", c.Key, n, c.Size, common.ErrIO)
		}
		size = max(size, offset+n)
	}
	return size, nil
}

// CreateEmptyFinal produces a zero-length final file for id. id must be
// the MD5 of no bytes.
func (s *ChunkStore) CreateEmptyFinal(id chunking.FileIdentity, ext string) error {
	if id != EmptyIdentity {
		return fmt.Errorf("%s is not the hash of an empty file: %w", id, common.ErrIncompleteUpload)
	}
	f, err := s.fs.OpenFile(s.FinalPath(id, ext), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create final file: %w: %w", common.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close final file: %w: %w", common.ErrIO, err)
	}
	return nil
}

// RemoveStaging deletes the staging directory of id and everything in it.
func (s *ChunkStore) RemoveStaging(id chunking.FileIdentity) error {
	if err := s.fs.RemoveAll(s.StagingDir(id)); err != nil {
		return fmt.Errorf("remove staging: %w: %w", common.ErrIO, err)
	}
	return nil
}

// ListStagingAreas returns every staging directory under root.
func (s *ChunkStore) ListStagingAreas() ([]StagingArea, error) {
	infos, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		return nil, fmt.Errorf("list root: %w: %w", common.ErrIO, err)
	}

	var out []StagingArea
	for _, fi := range infos {
		if !fi.IsDir() || !strings.HasPrefix(fi.Name(), common.StagingDirPrefix) {
			continue
		}
		id, err := chunking.ParseIdentity(strings.TrimPrefix(fi.Name(), common.StagingDirPrefix))
		if err != nil {
			continue
		}

		last := fi.ModTime()
		entries, err := afero.ReadDir(s.fs, filepath.Join(s.root, fi.Name()))
		if err != nil {
			return nil, fmt.Errorf("list staging %s: %w: %w", fi.Name(), common.ErrIO, err)
		}
		for _, e := range entries {
			if e.ModTime().After(last) {
				last = e.ModTime()
			}
		}
		out = append(out, StagingArea{Identity: id, LastActivity: last})
	}
	return out, nil
}
