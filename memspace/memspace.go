// Package memspace implements the ordered virtual memory region map used
// by debuggers, scripting, and memory-watch UI: a flat, endian-aware
// address space assembled from named, possibly overlapping-free regions
// backed by arbitrary byte storage (§4.6, §6.4).
package memspace

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

var (
	ErrOutOfRange  = errors.New("memspace: address out of range")
	ErrOverlapping = errors.New("memspace: region overlaps an existing region")
	ErrReadOnly    = errors.New("memspace: region is read-only")
)

// Backing is the storage behind one VMA: a plain byte slice accessed by
// region-relative offset.
type Backing interface {
	Len() int
	ReadByte(off int) byte
	WriteByte(off int, v byte)
}

// SliceBacking is a Backing over an in-memory []byte, the common case for
// RAM, ROM, and save-RAM regions.
type SliceBacking struct {
	Data     []byte
	ReadOnly bool
}

func (s *SliceBacking) Len() int { return len(s.Data) }
func (s *SliceBacking) ReadByte(off int) byte { return s.Data[off] }
func (s *SliceBacking) WriteByte(off int, v byte) {
	if s.ReadOnly {
		return
	}
	s.Data[off] = v
}

// Region is one named virtual memory area, placed at a base address within
// the space and spanning Backing.Len() bytes.
type Region struct {
	Name    string
	Base    uint64
	Backing Backing
	Endian  binary.ByteOrder
}

func (r *Region) size() uint64 { return uint64(r.Backing.Len()) }
func (r *Region) end() uint64  { return r.Base + r.size() } // exclusive

// Space is an ordered, non-overlapping collection of Regions forming one
// flat addressable memory space.
type Space struct {
	regions []*Region // kept sorted by Base
}

// New returns an empty Space.
func New() *Space { return &Space{} }

// AddRegion inserts r into the space, keeping regions ordered by base
// address. It is an error for r to overlap any existing region.
func (s *Space) AddRegion(r *Region) error {
	if r.Endian == nil {
		r.Endian = binary.BigEndian
	}
	idx := sort.Search(len(s.regions), func(i int) bool { return s.regions[i].Base >= r.Base })
	if idx > 0 && s.regions[idx-1].end() > r.Base {
		return fmt.Errorf("%w: %q overlaps %q", ErrOverlapping, r.Name, s.regions[idx-1].Name)
	}
	if idx < len(s.regions) && r.end() > s.regions[idx].Base {
		return fmt.Errorf("%w: %q overlaps %q", ErrOverlapping, r.Name, s.regions[idx].Name)
	}
	s.regions = append(s.regions, nil)
	copy(s.regions[idx+1:], s.regions[idx:])
	s.regions[idx] = r
	return nil
}

// RemoveRegion deletes the region with the given name, if present.
func (s *Space) RemoveRegion(name string) {
	for i, r := range s.regions {
		if r.Name == name {
			s.regions = append(s.regions[:i], s.regions[i+1:]...)
			return
		}
	}
}

// Regions returns the ordered region list. Callers must not mutate it.
func (s *Space) Regions() []*Region { return s.regions }

// TotalSize returns the address one past the highest mapped byte, i.e. the
// span a linear view of this space would need.
func (s *Space) TotalSize() uint64 {
	if len(s.regions) == 0 {
		return 0
	}
	last := s.regions[len(s.regions)-1]
	return last.end()
}

// find returns the region containing addr, or nil.
func (s *Space) find(addr uint64) *Region {
	idx := sort.Search(len(s.regions), func(i int) bool { return s.regions[i].end() > addr })
	if idx < len(s.regions) && s.regions[idx].Base <= addr {
		return s.regions[idx]
	}
	return nil
}

// ReadByte reads one byte at a flat address. Unmapped addresses read as 0,
// matching the teacher's null-bus convention for open-bus reads.
func (s *Space) ReadByte(addr uint64) byte {
	r := s.find(addr)
	if r == nil {
		return 0
	}
	return r.Backing.ReadByte(int(addr - r.Base))
}

// WriteByte writes one byte at a flat address; writes to unmapped addresses
// or read-only backings are silently dropped.
func (s *Space) WriteByte(addr uint64, v byte) {
	r := s.find(addr)
	if r == nil {
		return
	}
	r.Backing.WriteByte(int(addr-r.Base), v)
}

// Read copies len(p) bytes starting at addr into p, spanning region
// boundaries and reading 0 for unmapped gaps.
func (s *Space) Read(addr uint64, p []byte) {
	for i := range p {
		p[i] = s.ReadByte(addr + uint64(i))
	}
}

// Write copies p into the space starting at addr, spanning region
// boundaries and dropping bytes that land in unmapped gaps.
func (s *Space) Write(addr uint64, p []byte) {
	for i, b := range p {
		s.WriteByte(addr+uint64(i), b)
	}
}

func (s *Space) byteOrderAt(addr uint64) binary.ByteOrder {
	if r := s.find(addr); r != nil {
		return r.Endian
	}
	return binary.BigEndian
}

// ReadU16 reads a 16-bit value using the owning region's configured
// byte order (defaulting to big-endian over an unmapped address).
func (s *Space) ReadU16(addr uint64) uint16 {
	var buf [2]byte
	s.Read(addr, buf[:])
	return s.byteOrderAt(addr).Uint16(buf[:])
}

// WriteU16 writes a 16-bit value using the owning region's byte order.
func (s *Space) WriteU16(addr uint64, v uint16) {
	var buf [2]byte
	s.byteOrderAt(addr).PutUint16(buf[:], v)
	s.Write(addr, buf[:])
}

// ReadU32 reads a 32-bit value using the owning region's byte order.
func (s *Space) ReadU32(addr uint64) uint32 {
	var buf [4]byte
	s.Read(addr, buf[:])
	return s.byteOrderAt(addr).Uint32(buf[:])
}

// WriteU32 writes a 32-bit value using the owning region's byte order.
func (s *Space) WriteU32(addr uint64, v uint32) {
	var buf [4]byte
	s.byteOrderAt(addr).PutUint32(buf[:], v)
	s.Write(addr, buf[:])
}

// ReadU64 reads a 64-bit value using the owning region's byte order.
func (s *Space) ReadU64(addr uint64) uint64 {
	var buf [8]byte
	s.Read(addr, buf[:])
	return s.byteOrderAt(addr).Uint64(buf[:])
}

// WriteU64 writes a 64-bit value using the owning region's byte order.
func (s *Space) WriteU64(addr uint64, v uint64) {
	var buf [8]byte
	s.byteOrderAt(addr).PutUint64(buf[:], v)
	s.Write(addr, buf[:])
}

// LinearView materializes the whole space (including unmapped gaps, as
// zero bytes) into one contiguous buffer, sized to TotalSize(). This is
// the representation handed to hashers and bulk memory-search.
func (s *Space) LinearView() []byte {
	n := s.TotalSize()
	out := make([]byte, n)
	for _, r := range s.regions {
		for i := 0; i < r.Backing.Len(); i++ {
			out[r.Base+uint64(i)] = r.Backing.ReadByte(i)
		}
	}
	return out
}
