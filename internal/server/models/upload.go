// Package models defines server-side data models persisted in the database.
package models

import "time"

// Upload records a completed, merged file.
type Upload struct {
	// FileHash is the content identity of the file.
	FileHash string
	// Filename is the name the client supplied at merge time.
	Filename string
	// Ext is the extension of the stored final file, with leading dot.
	Ext string
	// Size is the assembled size in bytes.
	Size int64
	// ChunkSize is the chunk size the file was uploaded with.
	ChunkSize int64
	// MimeType is sniffed from the assembled content.
	MimeType string

	CreatedAt time.Time
}

// StorageKey is the object key used when the file is mirrored.
func (u *Upload) StorageKey() string {
	return u.FileHash + u.Ext
}
