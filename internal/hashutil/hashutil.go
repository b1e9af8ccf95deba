package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashStrings returns a SHA256 hash of the provided strings with newline separators.
func HashStrings(parts ...string) string {
	return hex.EncodeToString(sum(parts))
}

// ShortID returns the first 16 bytes of HashStrings as 32 hex characters.
// Used for identifiers that must be stable across detection cycles.
func ShortID(parts ...string) string {
	return hex.EncodeToString(sum(parts)[:16])
}

func sum(parts []string) []byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{'\n'})
	}
	return h.Sum(nil)
}
