// Package api holds the wire types shared by the upload server and client.
package api

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/bigupload/internal/common"
)

const (
	PathVerify  = "/verify"
	PathUpload  = "/upload"
	PathMerge   = "/merge"
	PathUploads = "/uploads"
	PathHealth  = "/healthz"
)

// Multipart field names of a chunk upload.
const (
	FieldChunk    = "chunk"
	FieldHash     = "hash"
	FieldFileHash = "fileHash"
	FieldFilename = "filename"
)

// Response codes carried in the body next to the HTTP status.
const (
	CodeOK         = 0
	CodeProtocol   = 1
	CodeIO         = 2
	CodeConflict   = 3
	CodeIncomplete = 4
	CodeNotFound   = 5
)

type VerifyRequest struct {
	FileHash string `json:"fileHash" binding:"required"`
	Filename string `json:"filename"`
}

type VerifyResponse struct {
	ShouldUpload bool     `json:"shouldUpload"`
	UploadedList []string `json:"uploadedList,omitempty"`
}

type MergeRequest struct {
	Filename string `json:"filename"`
	FileHash string `json:"fileHash" binding:"required"`
	// Size is the chunk size the file was split with.
	Size     int64  `json:"size"`
	FileSize *int64 `json:"fileSize,omitempty"`
}

type MergeResponse struct {
	Code           int    `json:"code"`
	Message        string `json:"message"`
	FileHash       string `json:"fileHash,omitempty"`
	Size           int64  `json:"size"`
	MimeType       string `json:"mimeType,omitempty"`
	AlreadyExisted bool   `json:"alreadyExisted,omitempty"`
}

type UploadRecord struct {
	FileHash  string `json:"fileHash"`
	Filename  string `json:"filename"`
	Ext       string `json:"ext"`
	Size      int64  `json:"size"`
	ChunkSize int64  `json:"chunkSize"`
	MimeType  string `json:"mimeType"`
	CreatedAt string `json:"createdAt"`
}

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// StatusFor maps an error to its HTTP status and body code.
func StatusFor(err error) (status int, code int) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, CodeProtocol
	case errors.Is(err, common.ErrProtocol), errors.Is(err, common.ErrInvalidConfiguration):
		return http.StatusBadRequest, CodeProtocol
	case errors.Is(err, common.ErrConcurrencyConflict):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, common.ErrIncompleteUpload):
		return http.StatusUnprocessableEntity, CodeIncomplete
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, CodeNotFound
	default:
		return http.StatusInternalServerError, CodeIO
	}
}

// ErrorFor is the inverse of StatusFor: it turns a response code back into
// the sentinel error it stands for.
func ErrorFor(code int) error {
	switch code {
	case CodeProtocol:
		return common.ErrProtocol
	case CodeConflict:
		return common.ErrConcurrencyConflict
	case CodeIncomplete:
		return common.ErrIncompleteUpload
	case CodeNotFound:
		return common.ErrorNotFound
	default:
		return common.ErrIO
	}
}
