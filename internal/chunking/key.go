package chunking

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/bigupload/internal/common"
)

// FileIdentity is the hex MD5 digest of a file's contents.
type FileIdentity string

func (id FileIdentity) String() string {
	return string(id)
}

// ChunkKey returns the staging name for chunk index of this file.
func (id FileIdentity) ChunkKey(index int) string {
	return string(id) + "-" + strconv.Itoa(index)
}

// ParseIdentity validates s as a hex MD5 digest and returns it lowercased.
// Anything else is rejected since identities end up in filesystem paths.
func ParseIdentity(s string) (FileIdentity, error) {
	if len(s) != common.IdentityHexLen {
		return "", fmt.Errorf("file hash %q: %w", s, common.ErrProtocol)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("file hash %q: %w", s, common.ErrProtocol)
	}
	return FileIdentity(strings.ToLower(s)), nil
}

// ParseChunkKey splits "<identity>-<index>" into its parts.
func ParseChunkKey(key string) (FileIdentity, int, error) {
	i := strings.LastIndexByte(key, '-')
	if i <= 0 || i == len(key)-1 {
		return "", 0, fmt.Errorf("chunk key %q: %w", key, common.ErrProtocol)
	}

	id, err := ParseIdentity(key[:i])
	if err != nil {
		return "", 0, fmt.Errorf("chunk key %q: %w", key, common.ErrProtocol)
	}

	digits := key[i+1:]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", 0, fmt.Errorf("chunk key %q: %w", key, common.ErrProtocol)
		}
	}
	index, err := strconv.Atoi(digits)
	if err != nil {
		return "", 0, fmt.Errorf("chunk key %q: %w", key, common.ErrProtocol)
	}

	return id, index, nil
}
