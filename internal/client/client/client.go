package client

import (
	"context"
	"io"

	"github.com/dmitrijs2005/bigupload/internal/api"
)

type Client interface {
	Ping(ctx context.Context) error
	Verify(ctx context.Context, fileHash, filename string) (*api.VerifyResponse, error)
	UploadChunk(ctx context.Context, fileHash, filename, chunkKey string, body io.Reader) error
	Merge(ctx context.Context, req api.MergeRequest) (*api.MergeResponse, error)
}
