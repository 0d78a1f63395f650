// Package uploads stores the registry of merged files.
package uploads

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/bigupload/internal/dbx"
	"github.com/dmitrijs2005/bigupload/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Record upserts u keyed by (file_hash, ext). A repeated merge of the same
// content refreshes the descriptive columns but keeps created_at.
func (r *PostgresRepository) Record(ctx context.Context, u *models.Upload) error {
	query := `
		INSERT INTO uploads (file_hash, ext, filename, size, chunk_size, mime_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (file_hash, ext)
		DO UPDATE SET
			filename = EXCLUDED.filename,
			size = EXCLUDED.size,
			chunk_size = EXCLUDED.chunk_size,
			mime_type = EXCLUDED.mime_type;
	`
	res, err := r.db.ExecContext(ctx, query, u.FileHash, u.Ext, u.Filename, u.Size, u.ChunkSize, u.MimeType)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

// ListByHash returns every stored variant (by extension) of fileHash.
func (r *PostgresRepository) ListByHash(ctx context.Context, fileHash string) ([]*models.Upload, error) {
	query := `SELECT file_hash, ext, filename, size, chunk_size, mime_type, created_at
		FROM uploads WHERE file_hash=$1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, fileHash)
	if err != nil {
		return nil, fmt.Errorf("failed to select uploads: %w", err)
	}
	defer rows.Close()

	var result []*models.Upload
	for rows.Next() {
		var u models.Upload
		if err := rows.Scan(&u.FileHash, &u.Ext, &u.Filename, &u.Size, &u.ChunkSize, &u.MimeType, &u.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
