// Package common defines shared constants and sentinel errors used across
// client and server layers of bigupload. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// ErrInvalidConfiguration is returned for unusable parameters such as a
	// non-positive chunk size.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrIO wraps filesystem and stream failures.
	ErrIO = errors.New("io error")

	// ErrProtocol reports a malformed request: missing fields, bad chunk keys,
	// identities that are not hex digests.
	ErrProtocol = errors.New("protocol error")

	// ErrConcurrencyConflict is returned when a merge for the same identity is
	// already running.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrIncompleteUpload is returned by merge when staged chunks do not cover
	// the file.
	ErrIncompleteUpload = errors.New("incomplete upload")

	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
)
