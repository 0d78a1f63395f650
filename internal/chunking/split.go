package chunking

import (
	"fmt"

	"github.com/dmitrijs2005/bigupload/internal/common"
)

// Descriptor is one contiguous byte range [Start, End) of the source file.
type Descriptor struct {
	Index int
	Start int64
	End   int64
	Size  int64
}

// Split divides a file of size bytes into ranges of chunkSize bytes. The
// last range may be shorter. A zero-length file yields no ranges.
func Split(size, chunkSize int64) ([]Descriptor, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size %d: %w", chunkSize, common.ErrInvalidConfiguration)
	}
	if size < 0 {
		return nil, fmt.Errorf("file size %d: %w", size, common.ErrInvalidConfiguration)
	}

	out := make([]Descriptor, 0, ChunkCount(size, chunkSize))
	for start, i := int64(0), 0; start < size; i++ {
		n := min(chunkSize, size-start)
		out = append(out, Descriptor{Index: i, Start: start, End: start + n, Size: n})
		start += n
	}
	return out, nil
}

// ChunkCount is ceil(size/chunkSize). chunkSize must be positive.
func ChunkCount(size, chunkSize int64) int {
	if size <= 0 {
		return 0
	}
	n := size / chunkSize
	if size%chunkSize != 0 {
		n++
	}
	return int(n)
}
