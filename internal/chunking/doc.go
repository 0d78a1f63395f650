// Package chunking splits a file into fixed-size byte ranges, names them and
// derives the whole-file identity from their contents.
//
// # Identity
//
// A FileIdentity is the lowercase hex MD5 digest of all file bytes in chunk
// order. Two files with the same bytes share an identity regardless of their
// names, which is what lets the server skip uploads it already holds.
//
// # Keys
//
// Each chunk is addressed as "<identity>-<index>". ParseChunkKey recovers the
// numeric index so callers can order chunks without trusting lexical order
// ("-10" sorts before "-2" as text).
//
// # Hashing
//
// Hasher reads the chunks strictly in index order on its own goroutine and
// reports progress over a channel, finishing with exactly one terminal event.
package chunking
