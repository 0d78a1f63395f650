package common

// StagingDirPrefix prefixes the per-identity staging directory name.
const StagingDirPrefix = "chunkDir_"

// DefaultChunkSize is the client chunk size when none is configured (10 MiB).
const DefaultChunkSize int64 = 10 * 1024 * 1024

// IdentityHexLen is the length of a hex-encoded MD5 digest.
const IdentityHexLen = 32
