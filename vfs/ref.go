package vfs

import (
	"fmt"
	"io"
	"sync"
)

// Handle is a refcounted, chain-following stream over a cluster chain in an
// FS. Multiple Handles may share the same head cluster; the chain is only
// freed once the last Handle referencing it is closed.
type Handle struct {
	fs     *FS
	head   uint32
	length int64 // logical byte length written through this chain so far

	mu   sync.Mutex
	pos  int64
	open bool
}

// refMu serializes refcount mutation across all FS instances; the refcount
// table is small and contention is not a concern for a single-process
// emulator frontend.
var refMu sync.Mutex

// Open returns a new Handle over the chain headed by head, incrementing its
// refcount. head may be 0 (cluster 0 is a reserved sentinel that is never
// allocated) to mean "not yet allocated"; in that case the first WriteAt
// call allocates the head cluster.
func (fs *FS) Open(head uint32, length int64) *Handle {
	refMu.Lock()
	if head != 0 {
		fs.refs[head]++
	}
	refMu.Unlock()
	return &Handle{fs: fs, head: head, length: length, open: true}
}

// Head returns the chain's head cluster number (0 if unallocated).
func (h *Handle) Head() uint32 { return h.head }

// Len returns the logical length written through this chain.
func (h *Handle) Len() int64 { return h.length }

// Close decrements the chain's refcount, freeing it to the allocator once
// the count reaches zero. Close is idempotent.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return nil
	}
	h.open = false
	if h.head == 0 {
		return nil
	}
	refMu.Lock()
	h.fs.refs[h.head]--
	n := h.fs.refs[h.head]
	if n <= 0 {
		delete(h.fs.refs, h.head)
	}
	refMu.Unlock()
	if n <= 0 {
		return h.fs.Free(h.head)
	}
	return nil
}

// Dup returns a new Handle sharing the same chain, incrementing the
// refcount once more.
func (h *Handle) Dup() *Handle {
	refMu.Lock()
	if h.head != 0 {
		h.fs.refs[h.head]++
	}
	refMu.Unlock()
	return &Handle{fs: h.fs, head: h.head, length: h.length, open: true}
}

// ReadAt reads len(p) bytes from the chain starting at logical offset off,
// walking cluster links as needed.
func (h *Handle) ReadAt(p []byte, off int64) (int, error) {
	if off >= h.length {
		return 0, io.EOF
	}
	if off+int64(len(p)) > h.length {
		p = p[:h.length-off]
	}
	n, err := h.readAt(p, off)
	if n < len(p) && err == nil {
		err = io.EOF
	}
	return n, err
}

func (h *Handle) readAt(p []byte, off int64) (int, error) {
	if h.head == 0 {
		return 0, io.EOF
	}
	c := h.head
	skip := off / ClusterSize
	for skip > 0 {
		next, ok := h.fs.Next(c)
		if !ok {
			return 0, io.EOF
		}
		c = next
		skip--
	}
	written := 0
	inClusterOff := int(off % ClusterSize)
	for written < len(p) {
		buf, err := h.fs.ReadCluster(c)
		if err != nil {
			return written, err
		}
		n := copy(p[written:], buf[inClusterOff:])
		written += n
		inClusterOff = 0
		if written < len(p) {
			next, ok := h.fs.Next(c)
			if !ok {
				return written, io.EOF
			}
			c = next
		}
	}
	return written, nil
}

// WriteAt writes p into the chain at logical offset off, allocating new
// clusters and extending the chain as needed. off must not exceed the
// current length (no sparse holes).
func (h *Handle) WriteAt(p []byte, off int64) (int, error) {
	if off > h.length {
		return 0, fmt.Errorf("vfs: sparse write at %d beyond length %d", off, h.length)
	}
	if h.head == 0 {
		c, err := h.fs.Alloc()
		if err != nil {
			return 0, err
		}
		h.head = c
		refMu.Lock()
		h.fs.refs[h.head]++
		refMu.Unlock()
	}

	c := h.head
	skip := off / ClusterSize
	for skip > 0 {
		next, ok := h.fs.Next(c)
		if !ok {
			nc, err := h.fs.Alloc()
			if err != nil {
				return 0, err
			}
			h.fs.Link(c, nc)
			next = nc
		}
		c = next
		skip--
	}

	written := 0
	inClusterOff := int(off % ClusterSize)
	for written < len(p) {
		buf, err := h.fs.ReadCluster(c)
		if err != nil {
			return written, err
		}
		n := copy(buf[inClusterOff:], p[written:])
		if err := h.fs.WriteCluster(c, buf); err != nil {
			return written, err
		}
		written += n
		inClusterOff = 0
		if written < len(p) {
			next, ok := h.fs.Next(c)
			if !ok {
				nc, err := h.fs.Alloc()
				if err != nil {
					return written, err
				}
				h.fs.Link(c, nc)
				next = nc
			}
			c = next
		}
	}
	if off+int64(len(p)) > h.length {
		h.length = off + int64(len(p))
	}
	return written, nil
}
