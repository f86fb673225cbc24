package memspace

import (
	"encoding/binary"
	"testing"
)

func TestAddRegionDetectsOverlap(t *testing.T) {
	s := New()
	if err := s.AddRegion(&Region{Name: "ram", Base: 0, Backing: &SliceBacking{Data: make([]byte, 0x2000)}}); err != nil {
		t.Fatalf("AddRegion ram: %v", err)
	}
	if err := s.AddRegion(&Region{Name: "vram", Base: 0x1000, Backing: &SliceBacking{Data: make([]byte, 0x100)}}); err == nil {
		t.Fatal("expected overlap error")
	}
	if err := s.AddRegion(&Region{Name: "vram", Base: 0x2000, Backing: &SliceBacking{Data: make([]byte, 0x100)}}); err != nil {
		t.Fatalf("AddRegion vram: %v", err)
	}
}

func TestReadWriteByteAcrossRegions(t *testing.T) {
	s := New()
	_ = s.AddRegion(&Region{Name: "ram", Base: 0, Backing: &SliceBacking{Data: make([]byte, 4)}})
	_ = s.AddRegion(&Region{Name: "rom", Base: 0x10, Backing: &SliceBacking{Data: []byte{1, 2, 3, 4}, ReadOnly: true}})

	s.WriteByte(2, 0xAB)
	if got := s.ReadByte(2); got != 0xAB {
		t.Fatalf("ReadByte(2) = %#x, want 0xAB", got)
	}
	// unmapped gap reads as zero
	if got := s.ReadByte(8); got != 0 {
		t.Fatalf("ReadByte(8) = %#x, want 0", got)
	}
	// write to read-only backing is dropped
	s.WriteByte(0x10, 0xFF)
	if got := s.ReadByte(0x10); got != 1 {
		t.Fatalf("ReadByte(0x10) = %#x, want 1 (read-only write should be dropped)", got)
	}
}

func TestTypedReadWriteRespectsRegionEndian(t *testing.T) {
	s := New()
	_ = s.AddRegion(&Region{Name: "be", Base: 0, Backing: &SliceBacking{Data: make([]byte, 4)}, Endian: binary.BigEndian})
	_ = s.AddRegion(&Region{Name: "le", Base: 0x100, Backing: &SliceBacking{Data: make([]byte, 4)}, Endian: binary.LittleEndian})

	s.WriteU32(0, 0x01020304)
	if got := s.ReadByte(0); got != 0x01 {
		t.Fatalf("big-endian first byte = %#x, want 0x01", got)
	}
	s.WriteU32(0x100, 0x01020304)
	if got := s.ReadByte(0x100); got != 0x04 {
		t.Fatalf("little-endian first byte = %#x, want 0x04", got)
	}
	if got := s.ReadU32(0x100); got != 0x01020304 {
		t.Fatalf("ReadU32(0x100) = %#x, want 0x01020304", got)
	}
}

func TestLinearView(t *testing.T) {
	s := New()
	_ = s.AddRegion(&Region{Name: "ram", Base: 0, Backing: &SliceBacking{Data: []byte{1, 2}}})
	_ = s.AddRegion(&Region{Name: "rom", Base: 4, Backing: &SliceBacking{Data: []byte{3, 4}}})

	view := s.LinearView()
	want := []byte{1, 2, 0, 0, 3, 4}
	if len(view) != len(want) {
		t.Fatalf("LinearView() len = %d, want %d", len(view), len(want))
	}
	for i := range want {
		if view[i] != want[i] {
			t.Fatalf("LinearView()[%d] = %d, want %d", i, view[i], want[i])
		}
	}
}
