// Package client talks to the upload server over HTTP.
//
// The Client interface is the transport-agnostic contract used by the
// upload service; HTTPClient implements it with JSON and multipart
// requests. Server rejections come back as the sentinel errors of the
// common package (common.ErrProtocol, common.ErrConcurrencyConflict,
// common.ErrIncompleteUpload, common.ErrIO, common.ErrorNotFound) so callers
// can match them with errors.Is. Transport failures wrap ErrUnavailable.
package client
