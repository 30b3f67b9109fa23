package contentkey

import (
	"crypto/md5"
	"encoding/hex"
)

// Length is the number of hex characters in a content key.
const Length = 16

// Key returns the deterministic fingerprint for a source URL. Identical URL
// bytes always produce the same key; the URL is not normalized first, so
// equivalent URLs with different spellings cache separately.
func Key(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])[:Length]
}
