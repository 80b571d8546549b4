// Package hexcodec implements the lenient hex<->byte conversions and the
// byte-reversal helper that the graph protocol builds everything else on
// top of.
package hexcodec

import "encoding/hex"

// Decode parses s as hex, ignoring a trailing incomplete nibble instead of
// erroring on it. Any remaining malformed byte pair still returns an error.
func Decode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		s = s[:len(s)-1]
	}
	return hex.DecodeString(s)
}

// Encode returns the lowercase, zero-padded hex representation of b.
func Encode(b []byte) string {
	return hex.EncodeToString(b)
}

// Reverse returns a new slice containing the bytes of b in reverse order.
// b is left untouched.
func Reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i, j := 0, len(b)-1; j >= 0; i, j = i+1, j-1 {
		out[i] = b[j]
	}
	return out
}

// ReverseInPlace reverses b and returns it for chaining.
func ReverseInPlace(b []byte) []byte {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}
