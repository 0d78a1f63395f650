package uploads

import (
	"context"

	"github.com/dmitrijs2005/bigupload/internal/server/models"
)

// Repository persists records of completed uploads.
type Repository interface {
	Record(ctx context.Context, u *models.Upload) error
	ListByHash(ctx context.Context, fileHash string) ([]*models.Upload, error)
}
