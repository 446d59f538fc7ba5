package fingerprint

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// Hash returns the blake3-256 hex digest of the canonical
// concatenation of parts. Parts are joined with a unit separator so
// that ("ab","c") and ("a","bc") never collide. The digest is 64 hex
// characters, stable across processes, and fully determined by the
// inputs.
func Hash(parts ...string) string {
	h := blake3.New(32, nil)
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0x1f})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
