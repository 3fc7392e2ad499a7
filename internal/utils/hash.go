package utils

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint derives the canonical cache key for one logical request. The
// parts are lowercased, trimmed, and joined with a separator that cannot
// appear in them, then hashed so keys stay fixed-width no matter how long
// the request parameters are.
func Fingerprint(parts ...string) string {
	var b strings.Builder
	for i, part := range parts {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(strings.ToLower(strings.TrimSpace(part)))
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}
