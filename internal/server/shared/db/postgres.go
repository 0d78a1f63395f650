// Package db opens the registry database and picks the repository backend.
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/bigupload/internal/server/repositories/repomanager"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var sqlOpen = sql.Open

// Backend bundles a repository manager with its connection. Conn is nil for
// the in-memory backend.
type Backend struct {
	Manager repomanager.RepositoryManager
	Conn    *sql.DB
}

// Close releases the connection, if any.
func (b *Backend) Close() error {
	if b.Conn == nil {
		return nil
	}
	return b.Conn.Close()
}

// Open returns a Postgres backend with migrations applied when dsn is set,
// otherwise an in-memory backend.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	if dsn == "" {
		return &Backend{Manager: repomanager.NewInMemoryRepositoryManager()}, nil
	}
	return openPostgres(ctx, dsn, repomanager.NewPostgresRepositoryManager())
}

func openPostgres(ctx context.Context, dsn string, m repomanager.RepositoryManager) (*Backend, error) {
	conn, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := m.RunMigrations(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return &Backend{Manager: m, Conn: conn}, nil
}
