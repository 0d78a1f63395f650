package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bigupload/internal/api"
	"github.com/dmitrijs2005/bigupload/internal/common"
	"github.com/dmitrijs2005/bigupload/internal/server/services"
	"github.com/gin-gonic/gin"
)

const (
	msgChunkReceived = "received file chunk"
	msgMerged        = "file merged success"
)

func (s *HTTPServer) verify(c *gin.Context) {
	var req api.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("verify request: %w: %w", common.ErrProtocol, err))
		return
	}

	res, err := s.uploads.Verify(c.Request.Context(), req.FileHash, req.Filename)
	if err != nil {
		s.fail(c, err)
		return
	}

	if !res.ShouldUpload {
		c.JSON(http.StatusOK, gin.H{"shouldUpload": false})
		return
	}
	list := res.UploadedList
	if list == nil {
		list = []string{}
	}
	c.JSON(http.StatusOK, api.VerifyResponse{ShouldUpload: true, UploadedList: list})
}

func (s *HTTPServer) uploadChunk(c *gin.Context) {
	if s.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes)
	}

	fh, err := c.FormFile(api.FieldChunk)
	if err != nil {
		s.fail(c, fmt.Errorf("chunk part: %w: %w", common.ErrProtocol, err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.fail(c, fmt.Errorf("open chunk part: %w: %w", common.ErrIO, err))
		return
	}
	defer f.Close()

	_, err = s.uploads.IngestChunk(c.Request.Context(), services.ChunkUpload{
		Filename: c.PostForm(api.FieldFilename),
		FileHash: c.PostForm(api.FieldFileHash),
		ChunkKey: c.PostForm(api.FieldHash),
		Body:     f,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.String(http.StatusOK, msgChunkReceived)
}

func (s *HTTPServer) merge(c *gin.Context) {
	var req api.MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("merge request: %w: %w", common.ErrProtocol, err))
		return
	}

	res, err := s.uploads.Merge(c.Request.Context(), services.MergeRequest{
		Filename:  req.Filename,
		FileHash:  req.FileHash,
		ChunkSize: req.Size,
		FileSize:  req.FileSize,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MergeResponse{
		Code:           api.CodeOK,
		Message:        msgMerged,
		FileHash:       res.FileHash,
		Size:           res.Size,
		MimeType:       res.MimeType,
		AlreadyExisted: res.AlreadyExisted,
	})
}

func (s *HTTPServer) lookup(c *gin.Context) {
	recs, err := s.uploads.Lookup(c.Request.Context(), c.Param("fileHash"))
	if err != nil {
		s.fail(c, err)
		return
	}

	out := make([]api.UploadRecord, 0, len(recs))
	for _, u := range recs {
		out = append(out, api.UploadRecord{
			FileHash:  u.FileHash,
			Filename:  u.Filename,
			Ext:       u.Ext,
			Size:      u.Size,
			ChunkSize: u.ChunkSize,
			MimeType:  u.MimeType,
			CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *HTTPServer) fail(c *gin.Context, err error) {
	status, code := api.StatusFor(err)
	log := s.requestLogger(c)
	if status >= http.StatusInternalServerError {
		log.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	} else {
		log.Warn(c.Request.Context(), "request rejected", "path", c.Request.URL.Path, "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, api.ErrorResponse{Code: code, Message: err.Error()})
}
