package share

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeVarIntRoundTrip(t *testing.T) {
	cases := []uint64{0, 0xFC, 0xFD, 0xFFFF, 0x10000, 0xFFFFFFFF}
	for _, v := range cases {
		enc := EncodeVarInt(v)
		got, n := DecodeVarInt(enc)
		if n != len(enc) {
			t.Fatalf("EncodeVarInt(%d): decoded %d bytes, encoded %d", v, n, len(enc))
		}
		if got != v {
			t.Fatalf("VarInt round trip: got %d, want %d", got, v)
		}
	}
}

func TestEncodeVarIntLengths(t *testing.T) {
	if l := len(EncodeVarInt(0)); l != 1 {
		t.Fatalf("EncodeVarInt(0) length = %d, want 1", l)
	}
	if l := len(EncodeVarInt(0xFC)); l != 1 {
		t.Fatalf("EncodeVarInt(0xFC) length = %d, want 1", l)
	}
	if l := len(EncodeVarInt(0xFD)); l != 3 {
		t.Fatalf("EncodeVarInt(0xFD) length = %d, want 3", l)
	}
	if l := len(EncodeVarInt(0xFFFF)); l != 3 {
		t.Fatalf("EncodeVarInt(0xFFFF) length = %d, want 3", l)
	}
	if l := len(EncodeVarInt(0x10000)); l != 5 {
		t.Fatalf("EncodeVarInt(0x10000) length = %d, want 5", l)
	}
}

func TestParsePathToArraySkipsSentinel(t *testing.T) {
	buf := []byte{
		0x00, 0x00, // 0
		0xFF, 0xFF, // sentinel, skipped
		0x02, 0x00, // 2
	}
	got := ParsePathToArray(buf, 0, 3)
	want := []uint16{0, 2}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestParsePathToArrayTruncatedBuffer(t *testing.T) {
	buf := []byte{0x01, 0x00} // only one vertex's worth of bytes
	got := ParsePathToArray(buf, 0, 5)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("got %v, want [1] (parsing stops when the buffer runs out)", got)
	}
}

func TestParsePathToArrayOffset(t *testing.T) {
	buf := []byte{0xAA, 0xAA, 0x03, 0x00, 0x04, 0x00}
	got := ParsePathToArray(buf, 2, 2)
	if len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Fatalf("got %v, want [3 4]", got)
	}
}

func bytesZeroHex(n int) string {
	out := make([]byte, n*2)
	for i := range out {
		out[i] = '0'
	}
	return string(out)
}

func TestWorkerSizeInBounds(t *testing.T) {
	h1 := "deadbeef" + bytesZeroHex(28)
	nw, nq, err := WorkerSize(h1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nw < WorkerMin || nw >= WorkerMin+WorkerSpan {
		t.Fatalf("Nw %d out of bounds [%d,%d)", nw, WorkerMin, WorkerMin+WorkerSpan)
	}
	if nw+nq != MaxGridSize {
		t.Fatalf("Nw+Nq = %d, want %d", nw+nq, MaxGridSize)
	}
}

func TestConstructRejectsOversizedBlockData(t *testing.T) {
	blockData := bytes.Repeat([]byte{0x00}, MaxBlockDataHexLen/2+1)
	res := Construct(blockData, nil, nil, 0)
	if res.Valid {
		t.Fatal("expected rejection of oversized blockData")
	}
	if res.Error != ErrInvalidData {
		t.Fatalf("got error %q, want %q", res.Error, ErrInvalidData)
	}
}

func TestConstructRejectsEmptyPath(t *testing.T) {
	res := Construct(nil, []byte{0, 0, 0, 0}, nil, 0)
	if res.Valid {
		t.Fatal("expected rejection: an empty path cannot contain a worker cycle")
	}
	if res.Error != ErrInvalidWorkerCycle {
		t.Fatalf("got error %q, want %q", res.Error, ErrInvalidWorkerCycle)
	}
}

func TestConstructDeterministic(t *testing.T) {
	blockData := []byte("block")
	nonce := []byte{1, 2, 3, 4}
	path := bytes.Repeat([]byte{0xAB}, 16)
	a := Construct(blockData, nonce, path, 1000)
	b := Construct(blockData, nonce, path, 1000)
	if a.Valid != b.Valid || a.Error != b.Error || a.Hash != b.Hash {
		t.Fatalf("identical inputs produced different results: %+v vs %+v", a, b)
	}
}
