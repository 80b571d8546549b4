// Package mt64 implements the 64-bit Mersenne Twister (MT19937-64) with the
// standard seeding procedure and parameters — the same engine shipped as
// std::mt19937_64 — plus the seed-derivation and uniform-integer rejection
// sampler the graph generator depends on. Every byte of this package is
// part of the wire protocol: miners and validators must agree bit-for-bit,
// so nothing here may be swapped for a "close enough" PRNG.
package mt64

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tos-network/powvalidator/internal/hexcodec"
)

const (
	degree    = 312
	midWord   = 156
	matrixA   = 0xB5026F5AA96619E9
	upperMask = 0xFFFFFFFF80000000
	lowerMask = 0x7FFFFFFF
)

// Engine is a MT19937-64 generator. The zero value is not usable; build one
// with New.
type Engine struct {
	state [degree]uint64
	index int
}

// New returns an Engine seeded with seed using the standard single-word
// seeding recurrence.
func New(seed uint64) *Engine {
	e := &Engine{}
	e.Seed(seed)
	return e
}

// Seed re-initializes the engine's state from a single 64-bit seed.
func (e *Engine) Seed(seed uint64) {
	e.state[0] = seed
	for i := 1; i < degree; i++ {
		prev := e.state[i-1]
		e.state[i] = 6364136223846793005*(prev^(prev>>62)) + uint64(i)
	}
	e.index = degree
}

var mag01 = [2]uint64{0, matrixA}

// Uint64 returns the next raw 64-bit draw in [0, 2^64-1].
func (e *Engine) Uint64() uint64 {
	if e.index >= degree {
		e.twist()
	}
	x := e.state[e.index]
	e.index++

	x ^= (x >> 29) & 0x5555555555555555
	x ^= (x << 17) & 0x71D67FFFEDA60000
	x ^= (x << 37) & 0xFFF7EEE000000000
	x ^= x >> 43
	return x
}

func (e *Engine) twist() {
	var i int
	for i = 0; i < degree-midWord; i++ {
		x := (e.state[i] & upperMask) | (e.state[i+1] & lowerMask)
		e.state[i] = e.state[i+midWord] ^ (x >> 1) ^ mag01[x&1]
	}
	for ; i < degree-1; i++ {
		x := (e.state[i] & upperMask) | (e.state[i+1] & lowerMask)
		e.state[i] = e.state[i+(midWord-degree)] ^ (x >> 1) ^ mag01[x&1]
	}
	x := (e.state[degree-1] & upperMask) | (e.state[0] & lowerMask)
	e.state[degree-1] = e.state[midWord-1] ^ (x >> 1) ^ mag01[x&1]
	e.index = 0
}

// ExtractSeedFromHash decodes a 64-char hex digest, reverses its bytes, and
// interprets the first 8 bytes of that reversal as a little-endian uint64
// seed. Equivalently: the last 8 bytes of the raw (undecoded-reversal) input,
// reversed.
func ExtractSeedFromHash(hashHex string) (uint64, error) {
	b, err := hexcodec.Decode(hashHex)
	if err != nil {
		return 0, fmt.Errorf("mt64: decode hash: %w", err)
	}
	if len(b) < 8 {
		return 0, fmt.Errorf("mt64: hash too short to derive a seed: %d bytes", len(b))
	}
	rev := hexcodec.Reverse(b)
	return binary.LittleEndian.Uint64(rev[:8]), nil
}

// UniformRange draws a value uniformly distributed over [a, b] from e,
// reproducing the scaled-rejection algorithm of the reference standard
// library distribution byte-for-byte. Only the Erange > Urange branch is
// exercised by this protocol (a=0, b=999); the Erange < Urange multi-word
// extension is not needed and is not implemented.
func UniformRange(e *Engine, a, b uint64) uint64 {
	urange := b - a
	const erange = math.MaxUint64

	switch {
	case erange > urange:
		size := urange + 1
		scale := uint64(erange) / size
		limit := size * scale
		var x uint64
		for {
			x = e.Uint64()
			if x < limit {
				break
			}
		}
		return a + x/scale
	case erange < urange:
		panic("mt64: multi-word uniform range extension is unreachable for this protocol")
	default:
		return a + e.Uint64()
	}
}
