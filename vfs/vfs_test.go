package vfs

import (
	"bytes"
	"sync"
	"testing"
)

// memBacking is a simple in-memory ReadWriterAt for tests.
type memBacking struct {
	mu  sync.Mutex
	buf []byte
}

func newMemBacking(size int) *memBacking {
	return &memBacking{buf: make([]byte, size)}
}

func (m *memBacking) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(off)+len(p) > len(m.buf) {
		grown := make([]byte, int(off)+len(p))
		copy(grown, m.buf)
		m.buf = grown
	}
	n := copy(p, m.buf[off:])
	return n, nil
}

func (m *memBacking) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	need := int(off) + len(p)
	if need > len(m.buf) {
		grown := make([]byte, need)
		copy(grown, m.buf)
		m.buf = grown
	}
	n := copy(m.buf[off:], p)
	return n, nil
}

func TestNewFSInitializesReservedClusters(t *testing.T) {
	backing := newMemBacking(SuperclusterSize)
	fs, err := New(backing)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if fs.FreeClusters() != ClustersPerSupercluster-3 {
		t.Fatalf("FreeClusters() = %d, want %d", fs.FreeClusters(), ClustersPerSupercluster-3)
	}
}

func TestAllocFreeRoundTrip(t *testing.T) {
	backing := newMemBacking(SuperclusterSize)
	fs, err := New(backing)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	before := fs.FreeClusters()
	c, err := fs.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if fs.FreeClusters() != before-1 {
		t.Fatalf("FreeClusters() after alloc = %d, want %d", fs.FreeClusters(), before-1)
	}
	if err := fs.Free(c); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if fs.FreeClusters() != before {
		t.Fatalf("FreeClusters() after free = %d, want %d", fs.FreeClusters(), before)
	}
	if err := fs.Free(c); err != ErrDoubleFree {
		t.Fatalf("second Free() = %v, want ErrDoubleFree", err)
	}
}

func TestHandleReadWriteAcrossClusters(t *testing.T) {
	backing := newMemBacking(4 * SuperclusterSize)
	fs, err := New(backing)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h := fs.Open(0, 0)
	defer h.Close()

	data := bytes.Repeat([]byte{0xAB}, ClusterSize*2+37)
	if _, err := h.WriteAt(data, 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if h.Len() != int64(len(data)) {
		t.Fatalf("Len() = %d, want %d", h.Len(), len(data))
	}

	got := make([]byte, len(data))
	if _, err := h.ReadAt(got, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("round-tripped data mismatch")
	}
}

func TestHandleRefcountingDefersFree(t *testing.T) {
	backing := newMemBacking(SuperclusterSize)
	fs, err := New(backing)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h1 := fs.Open(0, 0)
	if _, err := h1.WriteAt([]byte("hello"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	head := h1.Head()
	h2 := h1.Dup()

	before := fs.FreeClusters()
	if err := h1.Close(); err != nil {
		t.Fatalf("Close h1: %v", err)
	}
	if fs.FreeClusters() != before {
		t.Fatalf("cluster freed while h2 still open: FreeClusters() = %d, want %d", fs.FreeClusters(), before)
	}

	got := make([]byte, 5)
	if _, err := h2.ReadAt(got, 0); err != nil {
		t.Fatalf("ReadAt via h2: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}

	if err := h2.Close(); err != nil {
		t.Fatalf("Close h2: %v", err)
	}
	if fs.FreeClusters() != before+1 {
		t.Fatalf("FreeClusters() after last close = %d, want %d", fs.FreeClusters(), before+1)
	}
	_ = head
}

func TestSaveRestoreStateRoundTrip(t *testing.T) {
	backing := newMemBacking(SuperclusterSize)
	fs, err := New(backing)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c, err := fs.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	state := fs.SaveState()

	fs2, err := New(newMemBacking(SuperclusterSize))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := fs2.RestoreState(state); err != nil {
		t.Fatalf("RestoreState: %v", err)
	}
	if fs2.FreeClusters() != fs.FreeClusters() {
		t.Fatalf("FreeClusters() after restore = %d, want %d", fs2.FreeClusters(), fs.FreeClusters())
	}
	if err := fs2.Free(c); err != nil {
		t.Fatalf("Free restored cluster: %v", err)
	}
}
