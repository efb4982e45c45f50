// Package checksum fingerprints note file contents. The catalog stores the
// digest to detect changed files, and writers use it as an optimistic
// concurrency token.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Matches reports whether want is empty or equals the digest of data.
// Quotes around want, as sent in an If-Match header, are ignored.
func Matches(data []byte, want string) bool {
	want = strings.Trim(strings.TrimSpace(want), `"`)
	return want == "" || strings.EqualFold(want, Sum(data))
}
