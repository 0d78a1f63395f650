package services

import (
	"bytes"
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bigupload/internal/chunking"
	"github.com/dmitrijs2005/bigupload/internal/common"
	"github.com/dmitrijs2005/bigupload/internal/dbx"
	"github.com/dmitrijs2005/bigupload/internal/logging"
	"github.com/dmitrijs2005/bigupload/internal/server/models"
	"github.com/dmitrijs2005/bigupload/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bigupload/internal/server/repositories/uploads"
	"github.com/dmitrijs2005/bigupload/internal/server/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root = "/uploads"

type fakeMirror struct {
	mu   sync.Mutex
	puts map[string][]byte
	ct   map[string]string
	err  error
}

func (m *fakeMirror) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if m.err != nil {
		return m.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if int64(len(b)) != size {
		return fmt.Errorf("size mismatch %d != %d", len(b), size)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.puts == nil {
		m.puts = map[string][]byte{}
		m.ct = map[string]string{}
	}
	m.puts[key] = b
	m.ct[key] = contentType
	return nil
}

type fixture struct {
	svc    *UploadService
	fs     afero.Fs
	store  *storage.ChunkStore
	mirror *fakeMirror
}

func newFixture(t *testing.T, fs afero.Fs) *fixture {
	t.Helper()
	if fs == nil {
		fs = afero.NewMemMapFs()
	}
	store, err := storage.NewChunkStore(fs, root)
	require.NoError(t, err)
	m := &fakeMirror{}
	svc := NewUploadService(nil, repomanager.NewInMemoryRepositoryManager(), store, m, logging.Nop(), 0)
	return &fixture{svc: svc, fs: fs, store: store, mirror: m}
}

func identityOf(b []byte) chunking.FileIdentity {
	sum := md5.Sum(b)
	return chunking.FileIdentity(hex.EncodeToString(sum[:]))
}

func randomBytes(n int, seed int64) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	return b
}

func (f *fixture) upload(t *testing.T, data []byte, chunkSize int64, name string, order []int) chunking.FileIdentity {
	t.Helper()
	id := identityOf(data)
	chunks, err := chunking.Split(int64(len(data)), chunkSize)
	require.NoError(t, err)
	if order == nil {
		for i := range chunks {
			order = append(order, i)
		}
	}
	for _, i := range order {
		c := chunks[i]
		_, err := f.svc.IngestChunk(context.Background(), ChunkUpload{
			Filename: name,
			FileHash: id.String(),
			ChunkKey: id.ChunkKey(c.Index),
			Body:     bytes.NewReader(data[c.Start:c.End]),
		})
		require.NoError(t, err)
	}
	return id
}

func sizePtr(n int64) *int64 { return &n }

func TestVerify_FreshFile(t *testing.T) {
	f := newFixture(t, nil)
	id := identityOf([]byte("nothing yet"))

	res, err := f.svc.Verify(context.Background(), id.String(), "a.txt")
	require.NoError(t, err)
	assert.True(t, res.ShouldUpload)
	assert.NotNil(t, res.UploadedList)
	assert.Empty(t, res.UploadedList)
}

func TestVerify_ResumeIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	data := randomBytes(50, 1)
	id := identityOf(data)
	chunks, err := chunking.Split(50, 10)
	require.NoError(t, err)

	for _, i := range []int{4, 0, 2} {
		_, err := f.svc.IngestChunk(context.Background(), ChunkUpload{
			Filename: "x.bin", FileHash: id.String(), ChunkKey: id.ChunkKey(i),
			Body: bytes.NewReader(data[chunks[i].Start:chunks[i].End]),
		})
		require.NoError(t, err)
	}

	want := []string{id.ChunkKey(0), id.ChunkKey(2), id.ChunkKey(4)}
	for range 3 {
		res, err := f.svc.Verify(context.Background(), id.String(), "x.bin")
		require.NoError(t, err)
		assert.True(t, res.ShouldUpload)
		assert.Equal(t, want, res.UploadedList)
	}
}

func TestVerify_StagingKeyedByIdentityNotName(t *testing.T) {
	f := newFixture(t, nil)
	a := randomBytes(20, 2)
	b := randomBytes(20, 3)

	f.upload(t, a, 10, "same.bin", []int{0})
	idB := identityOf(b)

	res, err := f.svc.Verify(context.Background(), idB.String(), "same.bin")
	require.NoError(t, err)
	assert.Empty(t, res.UploadedList, "chunks of another file with the same name must not leak")
}

func TestVerify_ExistingFinalShortCircuits(t *testing.T) {
	f := newFixture(t, nil)
	data := randomBytes(30, 4)
	id := f.upload(t, data, 10, "movie.mp4", nil)
	_, err := f.svc.Merge(context.Background(), MergeRequest{Filename: "movie.mp4", FileHash: id.String(), ChunkSize: 10})
	require.NoError(t, err)

	res, err := f.svc.Verify(context.Background(), id.String(), "renamed-copy.mp4")
	require.NoError(t, err)
	assert.False(t, res.ShouldUpload)
	assert.Empty(t, res.UploadedList)
}

func TestVerify_RejectsBadHash(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Verify(context.Background(), "../../etc", "a")
	assert.ErrorIs(t, err, common.ErrProtocol)
}

func TestIngestChunk_Validation(t *testing.T) {
	f := newFixture(t, nil)
	id := identityOf([]byte("v"))
	other := identityOf([]byte("w"))

	tests := []struct {
		name string
		in   ChunkUpload
	}{
		{"bad hash", ChunkUpload{FileHash: "nope", ChunkKey: id.ChunkKey(0), Body: strings.NewReader("x")}},
		{"bad key", ChunkUpload{FileHash: id.String(), ChunkKey: "chunk-zero", Body: strings.NewReader("x")}},
		{"foreign key", ChunkUpload{FileHash: id.String(), ChunkKey: other.ChunkKey(0), Body: strings.NewReader("x")}},
		{"no body", ChunkUpload{FileHash: id.String(), ChunkKey: id.ChunkKey(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.IngestChunk(context.Background(), tt.in)
			assert.ErrorIs(t, err, common.ErrProtocol)
		})
	}
}

func TestIngestChunk_MaxChunkBytes(t *testing.T) {
	f := newFixture(t, nil)
	f.svc.maxChunkBytes = 8
	id := identityOf([]byte("limit"))

	_, err := f.svc.IngestChunk(context.Background(), ChunkUpload{
		FileHash: id.String(), ChunkKey: id.ChunkKey(0), Body: bytes.NewReader(make([]byte, 9)),
	})
	assert.ErrorIs(t, err, common.ErrProtocol)
}

func TestIngestChunk_AfterMergeIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	data := randomBytes(10, 5)
	id := f.upload(t, data, 10, "a.bin", nil)
	_, err := f.svc.Merge(context.Background(), MergeRequest{Filename: "a.bin", FileHash: id.String(), ChunkSize: 10})
	require.NoError(t, err)

	n, err := f.svc.IngestChunk(context.Background(), ChunkUpload{
		Filename: "a.bin", FileHash: id.String(), ChunkKey: id.ChunkKey(0), Body: bytes.NewReader(data),
	})
	require.NoError(t, err)
	assert.Zero(t, n)

	ok, err := afero.DirExists(f.fs, f.store.StagingDir(id))
	require.NoError(t, err)
	assert.False(t, ok, "no staging area recreated")
}

func TestMerge_Scenario25MBIn10MBChunks(t *testing.T) {
	f := newFixture(t, nil)
	const mb = 1 << 20
	data := randomBytes(25*mb, 6)

	id := f.upload(t, data, 10*mb, "big.iso", []int{2, 0, 1})

	res, err := f.svc.Merge(context.Background(), MergeRequest{
		Filename: "big.iso", FileHash: id.String(), ChunkSize: 10 * mb, FileSize: sizePtr(25 * mb),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 25*mb, res.Size)
	assert.Equal(t, ".iso", res.Ext)
	assert.False(t, res.AlreadyExisted)

	got, err := afero.ReadFile(f.fs, f.store.FinalPath(id, ".iso"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, got), "final file must equal source")

	ok, err := afero.DirExists(f.fs, f.store.StagingDir(id))
	require.NoError(t, err)
	assert.False(t, ok, "staging area removed")
}

func TestMerge_RoundTripChunkSizes(t *testing.T) {
	data := randomBytes(1000, 7)
	for _, cs := range []int64{1, 7, 100, 999, 1000, 4096} {
		t.Run(fmt.Sprint(cs), func(t *testing.T) {
			f := newFixture(t, nil)
			chunks, err := chunking.Split(int64(len(data)), cs)
			require.NoError(t, err)
			order := rand.New(rand.NewSource(cs)).Perm(len(chunks))

			id := f.upload(t, data, cs, "r.dat", order)
			_, err = f.svc.Merge(context.Background(), MergeRequest{Filename: "r.dat", FileHash: id.String(), ChunkSize: cs})
			require.NoError(t, err)

			got, err := afero.ReadFile(f.fs, f.store.FinalPath(id, ".dat"))
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}
}

func TestMerge_EmptyFile(t *testing.T) {
	f := newFixture(t, nil)
	id := identityOf(nil)

	res, err := f.svc.Merge(context.Background(), MergeRequest{Filename: "empty.txt", FileHash: id.String(), ChunkSize: 10, FileSize: sizePtr(0)})
	require.NoError(t, err)
	assert.Zero(t, res.Size)

	ok, err := f.store.FinalExists(id, ".txt")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMerge_Incomplete(t *testing.T) {
	data := randomBytes(40, 8)

	tests := []struct {
		name     string
		staged   []int
		fileSize *int64
		wantErr  error
	}{
		{"nothing staged", nil, nil, common.ErrIncompleteUpload},
		{"gap without size", []int{0, 2, 3}, nil, common.ErrIncompleteUpload},
		{"missing head", []int{1, 2, 3}, nil, common.ErrIncompleteUpload},
		{"missing tail with size", []int{0, 1}, sizePtr(40), common.ErrIncompleteUpload},
		{"missing tail without size", []int{0, 1}, nil, common.ErrIncompleteUpload},
		{"zero size for non-empty hash", nil, sizePtr(0), common.ErrIncompleteUpload},
		{"size says fewer chunks", []int{0, 1, 2, 3}, sizePtr(25), common.ErrProtocol},
		{"size mismatch in last chunk", []int{0, 1, 2, 3}, sizePtr(39), common.ErrProtocol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			id := identityOf(data)
			if len(tt.staged) > 0 {
				f.upload(t, data, 10, "d.bin", tt.staged)
			}

			_, err := f.svc.Merge(context.Background(), MergeRequest{Filename: "d.bin", FileHash: id.String(), ChunkSize: 10, FileSize: tt.fileSize})
			assert.ErrorIs(t, err, tt.wantErr)

			ok, err := f.store.FinalExists(id, ".bin")
			require.NoError(t, err)
			assert.False(t, ok)

			left, err := f.store.ListChunks(id)
			require.NoError(t, err)
			assert.Len(t, left, len(tt.staged), "staged chunks kept")
		})
	}
}

func TestMerge_CorruptedChunkIsNotCommitted(t *testing.T) {
	f := newFixture(t, nil)
	data := randomBytes(30, 14)
	id := identityOf(data)
	f.upload(t, data, 10, "x.bin", []int{0, 2})

	_, err := f.svc.IngestChunk(context.Background(), ChunkUpload{
		Filename: "x.bin", FileHash: id.String(), ChunkKey: id.ChunkKey(1), Body: bytes.NewReader(make([]byte, 10)),
	})
	require.NoError(t, err)

	_, err = f.svc.Merge(context.Background(), MergeRequest{Filename: "x.bin", FileHash: id.String(), ChunkSize: 10, FileSize: sizePtr(30)})
	assert.ErrorIs(t, err, common.ErrIncompleteUpload)

	res, err := f.svc.Verify(context.Background(), id.String(), "x.bin")
	require.NoError(t, err)
	assert.True(t, res.ShouldUpload)
	assert.Len(t, res.UploadedList, 3, "staged chunks kept")
}

// cancelFs cancels a context when one chunk is opened for merging.
type cancelFs struct {
	afero.Fs
	name   string
	cancel context.CancelFunc
}

func (f *cancelFs) Open(name string) (afero.File, error) {
	if strings.HasSuffix(name, f.name) {
		f.cancel()
	}
	return f.Fs.Open(name)
}

func TestMerge_SurvivesCallerCancellation(t *testing.T) {
	data := randomBytes(30, 15)
	id := identityOf(data)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newFixture(t, &cancelFs{Fs: afero.NewMemMapFs(), name: id.ChunkKey(1), cancel: cancel})
	f.upload(t, data, 10, "slow.bin", nil)

	res, err := f.svc.Merge(ctx, MergeRequest{Filename: "slow.bin", FileHash: id.String(), ChunkSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 30, res.Size)
	require.ErrorIs(t, ctx.Err(), context.Canceled)

	got, err := afero.ReadFile(f.fs, f.store.FinalPath(id, ".bin"))
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, data, f.mirror.puts[id.String()+".bin"])
}

func TestMerge_HugeChunkSizeSingleChunk(t *testing.T) {
	f := newFixture(t, nil)
	data := randomBytes(10, 16)
	id := f.upload(t, data, math.MaxInt64, "one.bin", nil)

	res, err := f.svc.Merge(context.Background(), MergeRequest{Filename: "one.bin", FileHash: id.String(), ChunkSize: math.MaxInt64, FileSize: sizePtr(10)})
	require.NoError(t, err)
	assert.EqualValues(t, 10, res.Size)
}

func TestMerge_WrongChunkSizeIsProtocolError(t *testing.T) {
	f := newFixture(t, nil)
	data := randomBytes(30, 9)
	id := f.upload(t, data, 10, "w.bin", nil)

	_, err := f.svc.Merge(context.Background(), MergeRequest{Filename: "w.bin", FileHash: id.String(), ChunkSize: 8})
	assert.ErrorIs(t, err, common.ErrProtocol)
}

func TestMerge_InvalidRequest(t *testing.T) {
	f := newFixture(t, nil)
	id := identityOf([]byte("x"))

	_, err := f.svc.Merge(context.Background(), MergeRequest{FileHash: id.String(), ChunkSize: 0})
	assert.ErrorIs(t, err, common.ErrInvalidConfiguration)

	_, err = f.svc.Merge(context.Background(), MergeRequest{FileHash: id.String(), ChunkSize: 10, FileSize: sizePtr(-1)})
	assert.ErrorIs(t, err, common.ErrProtocol)

	_, err = f.svc.Merge(context.Background(), MergeRequest{FileHash: "zz", ChunkSize: 10})
	assert.ErrorIs(t, err, common.ErrProtocol)
}

func TestMerge_ConcurrencyConflict(t *testing.T) {
	f := newFixture(t, nil)
	data := randomBytes(20, 10)
	id := f.upload(t, data, 10, "c.bin", nil)

	require.True(t, f.svc.locks.TryLock(id.String()))
	_, err := f.svc.Merge(context.Background(), MergeRequest{Filename: "c.bin", FileHash: id.String(), ChunkSize: 10})
	assert.ErrorIs(t, err, common.ErrConcurrencyConflict)
	f.svc.locks.Unlock(id.String())

	left, err := f.store.ListChunks(id)
	require.NoError(t, err)
	assert.Len(t, left, 2)

	_, err = f.svc.Merge(context.Background(), MergeRequest{Filename: "c.bin", FileHash: id.String(), ChunkSize: 10})
	require.NoError(t, err)
}

func TestMerge_ParallelCallsProduceOneCorrectFile(t *testing.T) {
	f := newFixture(t, afero.NewBasePathFs(afero.NewOsFs(), t.TempDir()))
	data := randomBytes(64*1024, 11)
	id := f.upload(t, data, 4096, "p.bin", nil)

	var ok, conflicts atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Merge(context.Background(), MergeRequest{Filename: "p.bin", FileHash: id.String(), ChunkSize: 4096})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, common.ErrConcurrencyConflict):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, ok.Load(), int32(1))
	assert.Equal(t, int32(8), ok.Load()+conflicts.Load())

	got, err := afero.ReadFile(f.fs, f.store.FinalPath(id, ".bin"))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestMerge_AlreadyMergedIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	data := randomBytes(15, 12)
	id := f.upload(t, data, 10, "n.bin", nil)

	_, err := f.svc.Merge(context.Background(), MergeRequest{Filename: "n.bin", FileHash: id.String(), ChunkSize: 10})
	require.NoError(t, err)

	res, err := f.svc.Merge(context.Background(), MergeRequest{Filename: "n.bin", FileHash: id.String(), ChunkSize: 10})
	require.NoError(t, err)
	assert.True(t, res.AlreadyExisted)
	assert.EqualValues(t, 15, res.Size)
}

// flakyFs fails the first open of one chunk to simulate a merge crashing
// halfway through.
type flakyFs struct {
	afero.Fs
	failName string
	tripped  atomic.Bool
}

func (f *flakyFs) Open(name string) (afero.File, error) {
	if strings.HasSuffix(name, f.failName) && f.tripped.CompareAndSwap(false, true) {
		return nil, &os.PathError{Op: "open", Path: name, Err: errors.New("injected failure")}
	}
	return f.Fs.Open(name)
}

func TestMerge_FailureKeepsChunksAndRetrySucceeds(t *testing.T) {
	data := randomBytes(35, 13)
	id := identityOf(data)
	fs := &flakyFs{Fs: afero.NewMemMapFs(), failName: id.ChunkKey(2)}
	f := newFixture(t, fs)
	f.upload(t, data, 10, "crash.bin", []int{3, 1, 0, 2})

	_, err := f.svc.Merge(context.Background(), MergeRequest{Filename: "crash.bin", FileHash: id.String(), ChunkSize: 10, FileSize: sizePtr(35)})
	require.ErrorIs(t, err, common.ErrIO)

	ok, err := f.store.FinalExists(id, ".bin")
	require.NoError(t, err)
	assert.False(t, ok, "partial merge must not be visible")

	res, err := f.svc.Verify(context.Background(), id.String(), "crash.bin")
	require.NoError(t, err)
	assert.Len(t, res.UploadedList, 4, "all chunks still staged")

	_, err = f.svc.Merge(context.Background(), MergeRequest{Filename: "crash.bin", FileHash: id.String(), ChunkSize: 10, FileSize: sizePtr(35)})
	require.NoError(t, err)

	got, err := afero.ReadFile(f.fs, f.store.FinalPath(id, ".bin"))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestMerge_RecordsAndMirrors(t *testing.T) {
	f := newFixture(t, nil)
	data := []byte("%PDF-1.4\n" + strings.Repeat("x", 100))
	id := f.upload(t, data, 32, "doc.pdf", nil)

	res, err := f.svc.Merge(context.Background(), MergeRequest{Filename: "doc.pdf", FileHash: id.String(), ChunkSize: 32})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", res.MimeType)

	recs, err := f.svc.Lookup(context.Background(), id.String())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "doc.pdf", recs[0].Filename)
	assert.EqualValues(t, len(data), recs[0].Size)
	assert.EqualValues(t, 32, recs[0].ChunkSize)

	key := id.String() + ".pdf"
	assert.Equal(t, data, f.mirror.puts[key])
	assert.Equal(t, "application/pdf", f.mirror.ct[key])
}

type failingRegistry struct{}

func (failingRegistry) Record(context.Context, *models.Upload) error { return errors.New("db down") }
func (failingRegistry) ListByHash(context.Context, string) ([]*models.Upload, error) {
	return nil, errors.New("db down")
}

type failingManager struct{}

func (failingManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (failingManager) Uploads(dbx.DBTX) uploads.Repository         { return failingRegistry{} }

func TestMerge_SideEffectFailuresDoNotFailMerge(t *testing.T) {
	f := newFixture(t, nil)
	f.svc.repomanager = failingManager{}
	f.mirror.err = errors.New("bucket gone")

	data := randomBytes(12, 14)
	id := f.upload(t, data, 5, "s.bin", nil)

	_, err := f.svc.Merge(context.Background(), MergeRequest{Filename: "s.bin", FileHash: id.String(), ChunkSize: 5})
	require.NoError(t, err)

	_, err = f.svc.Lookup(context.Background(), id.String())
	assert.ErrorIs(t, err, common.ErrIO)
}

func TestLookup_NotFound(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Lookup(context.Background(), identityOf([]byte("none")).String())
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(fmt.Errorf("x: %w", common.ErrProtocol)))
	assert.True(t, IsClientError(common.ErrIncompleteUpload))
	assert.True(t, IsClientError(common.ErrConcurrencyConflict))
	assert.True(t, IsClientError(common.ErrInvalidConfiguration))
	assert.False(t, IsClientError(common.ErrIO))
	assert.False(t, IsClientError(errors.New("other")))
}

func TestMerge_RecordsInTransaction(t *testing.T) {
	tests := []struct {
		name   string
		expect func(mock sqlmock.Sqlmock)
	}{
		{
			name: "commit",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT INTO uploads`).
					WithArgs(sqlmock.AnyArg(), ".bin", "tx.bin", int64(12), int64(5), sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "rollback on error",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT INTO uploads`).WillReturnError(errors.New("constraint"))
				mock.ExpectRollback()
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.expect(mock)

			f := newFixture(t, nil)
			f.svc.db = db
			f.svc.repomanager = repomanager.NewPostgresRepositoryManager()

			id := f.upload(t, randomBytes(12, 21), 5, "tx.bin", nil)
			_, err = f.svc.Merge(context.Background(), MergeRequest{Filename: "tx.bin", FileHash: id.String(), ChunkSize: 5})
			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
