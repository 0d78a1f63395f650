package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bigupload/internal/dbx"
	"github.com/dmitrijs2005/bigupload/internal/server/repositories/uploads"
)

// InMemoryRepositoryManager hands out one shared process-local repository
// and ignores the DBTX argument.
type InMemoryRepositoryManager struct {
	uploads *uploads.MemoryRepository
}

func NewInMemoryRepositoryManager() RepositoryManager {
	return &InMemoryRepositoryManager{uploads: uploads.NewMemoryRepository()}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Uploads(dbx.DBTX) uploads.Repository {
	return m.uploads
}
