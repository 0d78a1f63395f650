package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/bigupload/internal/api"
	"github.com/dmitrijs2005/bigupload/internal/common"
)

// HTTPClient talks to the upload server over its JSON and multipart API.
// Transport failures wrap ErrUnavailable; server errors map back to the
// common error kinds.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// NewHTTPClient returns a client for the server at baseURL.
//
// Parameters:
//
//	baseURL server address, e.g. http://127.0.0.1:3000; a trailing slash is dropped
//	timeout bound on each request; zero means no bound
//
// Returns:
//
//	A client ready for use. No connection is made until the first call.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{},
	}
}

func (c *HTTPClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+api.PathHealth, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Verify reports whether the file must be uploaded and which chunks the
// server already has.
func (c *HTTPClient) Verify(ctx context.Context, fileHash, filename string) (*api.VerifyResponse, error) {
	var out api.VerifyResponse
	if err := c.postJSON(ctx, api.PathVerify, api.VerifyRequest{FileHash: fileHash, Filename: filename}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Merge asks the server to assemble the staged chunks.
func (c *HTTPClient) Merge(ctx context.Context, in api.MergeRequest) (*api.MergeResponse, error) {
	var out api.MergeResponse
	if err := c.postJSON(ctx, api.PathMerge, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadChunk streams body as the chunk part of a multipart form. The body
// is not buffered, so a retry needs a fresh reader.
//
// Parameters:
//
//	ctx      request context, further bounded by the client timeout
//	fileHash identity of the whole file
//	filename original file name, used by the server for the extension
//	chunkKey key of the chunk, <fileHash>-<index>
//	body     chunk bytes
//
// Returns:
//
//	nil when the server stored the chunk, otherwise the mapped error.
func (c *HTTPClient) UploadChunk(ctx context.Context, fileHash, filename, chunkKey string, body io.Reader) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeChunkForm(mw, fileHash, filename, chunkKey, body))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+api.PathUpload, pr)
	if err != nil {
		_ = pr.Close()
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req, nil)
}

func writeChunkForm(mw *multipart.Writer, fileHash, filename, chunkKey string, body io.Reader) error {
	fields := [][2]string{
		{api.FieldHash, chunkKey},
		{api.FieldFileHash, fileHash},
		{api.FieldFilename, filename},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile(api.FieldChunk, chunkKey)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, body); err != nil {
		return err
	}
	return mw.Close()
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, in, out any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%s %s: %w: %w", req.Method, req.URL.Path, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w: %w", req.URL.Path, common.ErrProtocol, err)
	}
	return nil
}

// responseError turns a non-2xx response into a sentinel-wrapping error,
// preferring the code in the body over the status.
func responseError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body api.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return fmt.Errorf("%s: %w", body.Message, api.ErrorFor(body.Code))
	}

	var sentinel error
	switch {
	case resp.StatusCode == http.StatusConflict:
		sentinel = common.ErrConcurrencyConflict
	case resp.StatusCode == http.StatusUnprocessableEntity:
		sentinel = common.ErrIncompleteUpload
	case resp.StatusCode == http.StatusNotFound:
		sentinel = common.ErrorNotFound
	case resp.StatusCode >= 500:
		sentinel = common.ErrIO
	default:
		sentinel = common.ErrProtocol
	}
	return fmt.Errorf("server replied %s: %w", resp.Status, sentinel)
}
