package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random identifier such as "note_3f2a..." for the
// given prefix, or a bare hex string when the prefix is empty.
func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}
