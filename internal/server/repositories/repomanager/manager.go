// Package repomanager vends repository implementations for a storage backend
// and owns schema migrations for it.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bigupload/internal/dbx"
	"github.com/dmitrijs2005/bigupload/internal/server/repositories/uploads"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Uploads(db dbx.DBTX) uploads.Repository
}
