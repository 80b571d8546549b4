// Package share implements the two-stage graph-challenge pipeline that
// turns a (blockData, nonce, path) submission into a final hash: initial
// hash -> worker graph + cycle -> queen-bee hash -> queen graph + cycle ->
// final hash.
package share

import (
	"encoding/binary"

	"github.com/tos-network/powvalidator/internal/cycle"
	"github.com/tos-network/powvalidator/internal/digest"
	"github.com/tos-network/powvalidator/internal/graph"
	"github.com/tos-network/powvalidator/internal/hexcodec"
)

const (
	// MaxGridSize is the combined worker+queen vertex budget.
	MaxGridSize = 2008
	// WorkerMin is the lower bound (inclusive) of the worker graph size.
	WorkerMin = 1892
	// WorkerSpan is the width of the worker graph size range (exclusive
	// upper bound WorkerMin+WorkerSpan = 1920).
	WorkerSpan = 28
	// WorkerEdgePercentX10 is the worker graph's edge density, x1000.
	WorkerEdgePercentX10 = 500
	// QueenEdgePercentX10 is the queen-bee graph's edge density, x1000.
	QueenEdgePercentX10 = 125
	// MaxBlockDataHexLen is the maximum accepted hex length of blockData.
	MaxBlockDataHexLen = 10000

	// paddingPairs is the number of trailing 0xFF 0xFF pairs appended to
	// the initial-hash payload.
	paddingPairs = MaxGridSize
)

// Failure diagnostics, returned verbatim in Result.Error.
const (
	ErrInvalidData        = "Invalid data"
	ErrInvalidWorkerCycle = "Invalid worker Hamiltonian cycle"
	ErrInvalidQueenCycle  = "Invalid queen bee Hamiltonian cycle"
)

// Result is the outcome of constructing and verifying a share's challenge
// pipeline.
type Result struct {
	Valid bool
	Hash  string // hfinal, hex
	Data  string // shareData, hex (blockData || nonce || path)
	Error string
}

// EncodeVarInt encodes n as a Bitcoin-style compact-size integer.
func EncodeVarInt(n uint64) []byte {
	switch {
	case n < 0xFD:
		return []byte{byte(n)}
	case n <= 0xFFFF:
		b := make([]byte, 3)
		b[0] = 0xFD
		binary.LittleEndian.PutUint16(b[1:], uint16(n))
		return b
	default:
		b := make([]byte, 5)
		b[0] = 0xFE
		binary.LittleEndian.PutUint32(b[1:], uint32(n))
		return b
	}
}

// DecodeVarInt decodes a Bitcoin-style compact-size integer from the start
// of b, returning the value and the number of bytes consumed.
func DecodeVarInt(b []byte) (value uint64, consumed int) {
	if len(b) == 0 {
		return 0, 0
	}
	switch {
	case b[0] < 0xFD:
		return uint64(b[0]), 1
	case b[0] == 0xFD:
		if len(b) < 3 {
			return 0, 0
		}
		return uint64(binary.LittleEndian.Uint16(b[1:3])), 3
	case b[0] == 0xFE:
		if len(b) < 5 {
			return 0, 0
		}
		return uint64(binary.LittleEndian.Uint32(b[1:5])), 5
	default:
		if len(b) < 9 {
			return 0, 0
		}
		return binary.LittleEndian.Uint64(b[1:9]), 9
	}
}

// ParsePathToArray reads count little-endian uint16 vertex entries starting
// at byte offset in buf, silently skipping any entry equal to the 0xFFFF
// sentinel. If buf is shorter than offset+2*count, parsing simply stops
// early — the resulting (possibly short) array is caught later by the
// cycle verifier's length check rather than treated as an error here.
func ParsePathToArray(buf []byte, offset, count int) []uint16 {
	out := make([]uint16, 0, count)
	for k := 0; k < count; k++ {
		idx := offset + k*2
		if idx+2 > len(buf) {
			break
		}
		v := uint16(buf[idx]) | uint16(buf[idx+1])<<8
		if v == cycle.Sentinel {
			continue
		}
		out = append(out, v)
	}
	return out
}

// WorkerSize derives (Nw, Nq) from the initial hash h1: Nw = WorkerMin +
// (uint32 from h1's first 8 hex chars) mod WorkerSpan.
func WorkerSize(h1Hex string) (nw, nq int, err error) {
	if len(h1Hex) < 8 {
		return 0, 0, errShortHash(h1Hex)
	}
	prefix, decErr := hexcodec.Decode(h1Hex[:8])
	if decErr != nil {
		return 0, 0, decErr
	}
	x := binary.BigEndian.Uint32(prefix)
	nw = WorkerMin + int(x%WorkerSpan)
	nq = MaxGridSize - nw
	return nw, nq, nil
}

// Construct runs the full two-stage challenge pipeline described in the
// module's design notes. now is the injected Unix-seconds clock passed to
// the cycle verifier's time-gated ground-state check.
func Construct(blockData, nonce, path []byte, now int64) *Result {
	if len(blockData)*2 > MaxBlockDataHexLen {
		return &Result{Error: ErrInvalidData}
	}

	// Step 1 — initial hash.
	payload := make([]byte, 0, len(blockData)+len(nonce)+paddingPairs*2)
	payload = append(payload, blockData...)
	payload = append(payload, nonce...)
	for i := 0; i < paddingPairs; i++ {
		payload = append(payload, 0xFF, 0xFF)
	}
	h1 := digest.SHA256Reversed(payload)

	// Step 2 — worker challenge.
	nw, nq, err := WorkerSize(h1)
	if err != nil {
		return &Result{Error: ErrInvalidData}
	}

	workerCycle := ParsePathToArray(path, 0, nw)
	queenCycle := ParsePathToArray(path, 2*nw, nq)

	gw, err := graph.GenerateV2(h1, nw, WorkerEdgePercentX10)
	if err != nil {
		return &Result{Error: ErrInvalidData}
	}
	if !cycle.Verify(gw, workerCycle, now) {
		return &Result{Error: ErrInvalidWorkerCycle}
	}

	// Step 3 — derive the queen-bee hash.
	h1Bytes, err := hexcodec.Decode(h1)
	if err != nil {
		return &Result{Error: ErrInvalidData}
	}
	prefix := EncodeVarInt(uint64(len(workerCycle)))
	for _, v := range workerCycle {
		var vb [2]byte
		binary.LittleEndian.PutUint16(vb[:], v)
		prefix = append(prefix, vb[:]...)
	}
	prefix = append(prefix, hexcodec.Reverse(h1Bytes)...)
	hq := digest.SHA256Reversed(prefix)

	// Step 4 — queen challenge.
	gq, err := graph.GenerateV2(hq, nq, QueenEdgePercentX10)
	if err != nil {
		return &Result{Error: ErrInvalidData}
	}
	if !cycle.Verify(gq, queenCycle, now) {
		return &Result{Error: ErrInvalidQueenCycle}
	}

	// Step 5 — final hash.
	final := make([]byte, 0, len(blockData)+len(nonce)+len(path))
	final = append(final, blockData...)
	final = append(final, nonce...)
	final = append(final, path...)
	hfinal := digest.SHA256Reversed(final)

	shareData := hexcodec.Encode(blockData) + hexcodec.Encode(nonce) + hexcodec.Encode(path)

	return &Result{
		Valid: true,
		Hash:  hfinal,
		Data:  shareData,
	}
}

type shortHashError string

func (e shortHashError) Error() string { return string(e) }

func errShortHash(h string) error {
	return shortHashError("share: hash too short: " + h)
}
