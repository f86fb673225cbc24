package patch

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"testing"
)

// encodeVarint mirrors the BPS varint encoding read by varint(): 7 data
// bits per byte, high bit set only on the last byte.
func encodeVarint(v uint64) []byte {
	var out []byte
	for {
		x := v & 0x7f
		v >>= 7
		if v == 0 {
			out = append(out, byte(x|0x80))
			return out
		}
		out = append(out, byte(x))
		v--
	}
}

// buildBPS assembles a minimal BPS1 patch body (no metadata) from a list
// of already-encoded ops, then appends the three trailing CRC-32 fields.
func buildBPS(t *testing.T, original, target []byte, ops [][]byte) []byte {
	t.Helper()
	var body bytes.Buffer
	body.WriteString("BPS1")
	body.Write(encodeVarint(uint64(len(original))))
	body.Write(encodeVarint(uint64(len(target))))
	body.Write(encodeVarint(0)) // no metadata
	for _, op := range ops {
		body.Write(op)
	}

	var footer [12]byte
	binary.LittleEndian.PutUint32(footer[0:4], crc32.ChecksumIEEE(original))
	binary.LittleEndian.PutUint32(footer[4:8], crc32.ChecksumIEEE(target))
	body.Write(footer[0:8])

	whole := body.Bytes()
	pchcrc := crc32.ChecksumIEEE(whole)
	binary.LittleEndian.PutUint32(footer[8:12], pchcrc)
	whole = append(whole, footer[8:12]...)
	return whole
}

// sourceReadOp emits opcode 0 (SourceRead) for length bytes.
func sourceReadOp(length uint64) []byte {
	return encodeVarint((length-1)<<2 | 0)
}

// targetReadOp emits opcode 1 (TargetRead) with its literal payload.
func targetReadOp(payload []byte) []byte {
	op := encodeVarint((uint64(len(payload))-1)<<2 | 1)
	return append(op, payload...)
}

func TestApplyIdentityPatch(t *testing.T) {
	original := []byte("hello world")
	p := buildBPS(t, original, original, [][]byte{sourceReadOp(uint64(len(original)))})

	out, err := Apply(original, p)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !bytes.Equal(out, original) {
		t.Fatalf("got %q, want %q", out, original)
	}
}

func TestApplyTargetReadInsertsLiteral(t *testing.T) {
	// The patcher's TargetRead bounds check (mirroring the original
	// BPS1 implementation exactly) requires at least 12 bytes of
	// further action-stream content after a literal insert's payload,
	// so this fixture trails the insert with plain SourceRead filler
	// ops rather than ending on the literal.
	original := bytes.Repeat([]byte("A"), 20)
	target := append([]byte("AAAABBBB"), original[8:20]...)

	ops := [][]byte{sourceReadOp(4), targetReadOp([]byte("BBBB"))}
	for i := 0; i < 12; i++ {
		ops = append(ops, sourceReadOp(1))
	}
	p := buildBPS(t, original, target, ops)

	out, err := Apply(original, p)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !bytes.Equal(out, target) {
		t.Fatalf("got %q, want %q", out, target)
	}
}

func TestApplyRejectsBadSourceCRC(t *testing.T) {
	original := []byte("hello world")
	corrupt := []byte("HELLO WORLD") // wrong content, same length
	p := buildBPS(t, original, original, [][]byte{sourceReadOp(uint64(len(original)))})

	if _, err := Apply(corrupt, p); err == nil {
		t.Fatal("expected CRC mismatch error on corrupted source")
	}
}

func TestApplyRejectsTruncatedPatch(t *testing.T) {
	if _, err := Apply([]byte("x"), []byte("short")); err == nil {
		t.Fatal("expected error on undersized patch")
	}
}

func TestIsBPS(t *testing.T) {
	if !IsBPS([]byte("BPS1extra")) {
		t.Fatal("expected IsBPS true for BPS1-prefixed data")
	}
	if IsBPS([]byte("BPS0extra")) {
		t.Fatal("expected IsBPS false for wrong magic")
	}
	if IsBPS([]byte("BP")) {
		t.Fatal("expected IsBPS false for too-short input")
	}
}
