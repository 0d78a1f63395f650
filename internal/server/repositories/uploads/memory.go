package uploads

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/bigupload/internal/server/models"
)

// MemoryRepository keeps records in process memory. It is used when no
// database is configured.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*models.Upload
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]*models.Upload), now: time.Now}
}

func (r *MemoryRepository) Record(_ context.Context, u *models.Upload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := u.StorageKey()
	rec := *u
	if prev, ok := r.records[key]; ok {
		rec.CreatedAt = prev.CreatedAt
	} else {
		rec.CreatedAt = r.now()
	}
	r.records[key] = &rec
	return nil
}

func (r *MemoryRepository) ListByHash(_ context.Context, fileHash string) ([]*models.Upload, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Upload
	for _, rec := range r.records {
		if rec.FileHash == fileHash {
			cp := *rec
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *models.Upload) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}
