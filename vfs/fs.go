package vfs

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

// FS is a cluster-allocated, savestate-friendly filesystem held entirely in
// a backing io.ReaderAt/io.WriterAt (typically a memory-mapped scratch file
// or an in-memory buffer). All allocation bookkeeping lives in memory; only
// cluster payloads are read from and written to the backing store on demand.
type FS struct {
	mu      sync.Mutex
	backing ReadWriterAt
	supers  []*clusterTable // lazily loaded as superclusters come into use
	size    int64           // high-water mark of the backing store, in clusters
	refs    map[uint32]int  // cluster -> outstanding ref.Handle count
}

// ReadWriterAt is the backing-store contract: random-access reads and
// writes of whole clusters.
type ReadWriterAt interface {
	io.ReaderAt
	io.WriterAt
}

// New creates a fresh filesystem image over backing, initializing the
// reserved clusters (sentinel, superblock, root).
func New(backing ReadWriterAt) (*FS, error) {
	fs := &FS{
		backing: backing,
		supers:  make([]*clusterTable, 1),
		size:    clusterRoot + 1,
		refs:    make(map[uint32]int),
	}
	fs.supers[0] = newClusterTable()
	t := fs.supers[0]
	t.entries[clusterSentinel] = entrySentinel
	t.entries[clusterSuper] = entryEndOfChain
	t.entries[clusterRoot] = entryEndOfChain
	t.free -= 3

	hdr := make([]byte, ClusterSize)
	copy(hdr, magic)
	if err := fs.writeCluster(clusterSuper, hdr); err != nil {
		return nil, err
	}
	return fs, nil
}

// Open builds an FS over a previously-written backing store after checking
// its superblock magic. Chain tables are not read from the backing store:
// every supercluster table starts out empty (all entries free), and a
// table image saved with SaveState has to be loaded with RestoreState.
func Open(backing ReadWriterAt, totalClusters int) (*FS, error) {
	fs := &FS{
		backing: backing,
		size:    int64(totalClusters),
		refs:    make(map[uint32]int),
	}
	nsupers := (totalClusters + ClustersPerSupercluster - 1) / ClustersPerSupercluster
	fs.supers = make([]*clusterTable, nsupers)

	hdr := make([]byte, len(magic))
	if _, err := fs.backing.ReadAt(hdr, clusterSuper*ClusterSize); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadIO, err)
	}
	for i := range magic {
		if hdr[i] != magic[i] {
			return nil, ErrBadMagic
		}
	}
	for i := range fs.supers {
		fs.supers[i] = newClusterTable()
	}
	// Chain tables are held purely in memory by this implementation (no
	// on-disk FAT region); a full reopen-from-cold-storage would need one.
	// This path exists for in-process save/restore of the *FS value only.
	return fs, nil
}

func (fs *FS) table(supercluster int) *clusterTable {
	for supercluster >= len(fs.supers) {
		fs.supers = append(fs.supers, newClusterTable())
	}
	return fs.supers[supercluster]
}

// Alloc reserves one free cluster and returns its global cluster number,
// marked end-of-chain.
func (fs *FS) Alloc() (uint32, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.allocLocked()
}

func (fs *FS) allocLocked() (uint32, error) {
	for sc := 0; ; sc++ {
		t := fs.table(sc)
		if t.free == 0 {
			continue
		}
		for slot, e := range t.entries {
			if sc == 0 && slot <= clusterRoot {
				continue // reserved
			}
			if e == entryFree {
				t.entries[slot] = entryEndOfChain
				t.free--
				c := globalCluster(sc, slot)
				if int64(c)+1 > fs.size {
					fs.size = int64(c) + 1
				}
				return c, nil
			}
		}
	}
}

// Free releases cluster c and, if it is not itself the end of a chain,
// releases the remainder of the chain it heads.
func (fs *FS) Free(c uint32) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for c != entryEndOfChain {
		sc, slot := splitCluster(c)
		t := fs.table(sc)
		if t.entries[slot] == entryFree {
			return ErrDoubleFree
		}
		next := t.entries[slot]
		t.entries[slot] = entryFree
		t.free++
		if next == entrySentinel {
			break
		}
		c = next
	}
	return nil
}

// Link sets cluster a's chain pointer to cluster b (extending a chain).
func (fs *FS) Link(a, b uint32) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	sc, slot := splitCluster(a)
	fs.table(sc).entries[slot] = b
}

// Next returns the cluster following c in its chain, or false at the end.
func (fs *FS) Next(c uint32) (uint32, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	sc, slot := splitCluster(c)
	n := fs.table(sc).entries[slot]
	if n == entryEndOfChain || n == entryFree || n == entrySentinel {
		return 0, false
	}
	return n, true
}

// ReadCluster reads the full ClusterSize payload of cluster c.
func (fs *FS) ReadCluster(c uint32) ([]byte, error) {
	buf := make([]byte, ClusterSize)
	off := int64(c) * ClusterSize
	if _, err := fs.backing.ReadAt(buf, off); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrBadIO, err)
	}
	return buf, nil
}

func (fs *FS) writeCluster(c uint32, buf []byte) error {
	if len(buf) != ClusterSize {
		padded := make([]byte, ClusterSize)
		copy(padded, buf)
		buf = padded
	}
	off := int64(c) * ClusterSize
	if _, err := fs.backing.WriteAt(buf, off); err != nil {
		return fmt.Errorf("%w: %v", ErrBadIO, err)
	}
	return nil
}

// WriteCluster writes a full cluster's payload.
func (fs *FS) WriteCluster(c uint32, buf []byte) error {
	return fs.writeCluster(c, buf)
}

// FreeClusters returns the number of clusters currently unallocated across
// every supercluster table that has been touched.
func (fs *FS) FreeClusters() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n := 0
	for _, t := range fs.supers {
		n += t.free
	}
	return n
}

// SaveState serializes the entire allocation table (not cluster payloads,
// which live in the backing store already) so an FS can be restored to an
// identical allocation topology.
func (fs *FS) SaveState() []byte {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	buf := make([]byte, 4, 4+len(fs.supers)*ClustersPerSupercluster*4)
	binary.BigEndian.PutUint32(buf, uint32(len(fs.supers)))
	for _, t := range fs.supers {
		for _, e := range t.entries {
			var tmp [4]byte
			binary.BigEndian.PutUint32(tmp[:], e)
			buf = append(buf, tmp[:]...)
		}
	}
	return buf
}

// RestoreState loads a table image previously produced by SaveState.
func (fs *FS) RestoreState(buf []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(buf) < 4 {
		return fmt.Errorf("vfs: truncated state")
	}
	n := int(binary.BigEndian.Uint32(buf))
	buf = buf[4:]
	if len(buf) < n*ClustersPerSupercluster*4 {
		return fmt.Errorf("vfs: truncated state table")
	}
	fs.supers = make([]*clusterTable, n)
	for i := 0; i < n; i++ {
		t := newClusterTable()
		t.free = 0
		for slot := 0; slot < ClustersPerSupercluster; slot++ {
			e := binary.BigEndian.Uint32(buf[:4])
			buf = buf[4:]
			t.entries[slot] = e
			if e == entryFree {
				t.free++
			}
		}
		fs.supers[i] = t
	}
	return nil
}
