// Package httpserver exposes the upload service over JSON and multipart HTTP.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bigupload/internal/api"
	"github.com/dmitrijs2005/bigupload/internal/logging"
	"github.com/dmitrijs2005/bigupload/internal/server/models"
	"github.com/dmitrijs2005/bigupload/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	// multipartOverhead is added to the chunk limit for the form envelope.
	multipartOverhead = 1 << 20
)

// UploadService is the part of services.UploadService the handlers use.
type UploadService interface {
	Verify(ctx context.Context, fileHash, filename string) (*services.VerifyResult, error)
	IngestChunk(ctx context.Context, in services.ChunkUpload) (int64, error)
	Merge(ctx context.Context, req services.MergeRequest) (*services.MergeResult, error)
	Lookup(ctx context.Context, fileHash string) ([]*models.Upload, error)
}

type HTTPServer struct {
	address      string
	uploads      UploadService
	logger       logging.Logger
	maxBodyBytes int64
	engine       *gin.Engine
}

// NewHTTPServer builds the router. maxChunkBytes of zero leaves request
// bodies unbounded.
func NewHTTPServer(a string, l logging.Logger, us UploadService, maxChunkBytes int64) *HTTPServer {
	s := &HTTPServer{
		address: a,
		uploads: us,
		logger:  l.With("module", "http_server"),
	}
	if maxChunkBytes > 0 {
		s.maxBodyBytes = maxChunkBytes + multipartOverhead
	}
	s.engine = s.routes()
	return s
}

func (s *HTTPServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"*"}
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	r.Use(cors.New(corsConfig))
	r.Use(s.accessLog)

	// preflights without an Origin header are not answered by the cors middleware
	r.OPTIONS("/*path", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.POST(api.PathVerify, s.verify)
	r.POST(api.PathUpload, s.uploadChunk)
	r.POST("/", s.uploadChunk)
	r.POST(api.PathMerge, s.merge)
	r.GET(api.PathUploads+"/:fileHash", s.lookup)
	r.GET(api.PathHealth, s.health)

	return r
}

// Handler returns the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
