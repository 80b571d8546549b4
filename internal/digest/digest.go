// Package digest computes the single hash primitive the whole protocol is
// built on: SHA-256 with its output byte-reversed. The reversal is load
// bearing, not a cosmetic choice — it is how the rest of the system turns a
// digest into a little-endian integer seed later on.
package digest

import (
	"crypto/sha256"

	"github.com/tos-network/powvalidator/internal/hexcodec"
)

// SHA256Reversed hashes b with SHA-256 and returns the digest with its 32
// bytes reversed, hex-encoded.
func SHA256Reversed(b []byte) string {
	return hexcodec.Encode(SHA256ReversedBytes(b))
}

// SHA256ReversedBytes is the byte-oriented form of SHA256Reversed, used
// internally wherever the raw reversed digest is needed directly (e.g. the
// queen-bee prefix) instead of its hex encoding.
func SHA256ReversedBytes(b []byte) []byte {
	sum := sha256.Sum256(b)
	out := make([]byte, len(sum))
	for i, j := 0, len(sum)-1; j >= 0; i, j = i+1, j-1 {
		out[i] = sum[j]
	}
	return out
}
