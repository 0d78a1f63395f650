// Package services implements the client side of the resumable upload:
// split and hash the file, ask the server what it already has, send the
// missing chunks in parallel with retries, then request the merge.
package services
