package controller

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// logicalController maps one (port, controller) pair to a contiguous range
// of flat control indices.
type logicalController struct {
	port       int
	controller int
	indexBase  int
	count      int
}

// PortTypeSet is an immutable, canonicalized multiplexed layout of up to N
// port types into one contiguous per-subframe byte record. Two sets built
// from the identical sequence of port type objects are the same object:
// set identity is pointer identity, enforced by a process-wide interning
// registry (see §9, "canonical port-type-set interning").
type PortTypeSet struct {
	types       []PortType
	offsets     []int
	total       int
	indexCount  int
	triples     []triple               // flat index -> triple
	index       map[triple]uint32      // triple -> flat index
	logicals    []logicalController    // lcid -> range
	legacyPCIDs []logicalController    // legacy pcid -> range, same order as logicals for this implementation
}

type triple struct {
	port, controller, control int
}

// internCacheSize bounds the canonical port-type-set registry. A session
// that cycles through many ROMs (each with its own port type combination)
// should not grow this table without bound; §9's interning guarantee only
// needs pointer equality to hold for sets currently in use, not for every
// set ever constructed.
const internCacheSize = 256

var (
	internMu  sync.Mutex
	internTab = mustNewInternCache()
)

func mustNewInternCache() *lru.Cache[string, *PortTypeSet] {
	c, err := lru.New[string, *PortTypeSet](internCacheSize)
	if err != nil {
		panic(err)
	}
	return c
}

func internKey(types []PortType) string {
	key := ""
	for _, t := range types {
		key += fmt.Sprintf("%p|", t)
	}
	return key
}

// Make builds (or returns the existing canonical instance of) a port type
// set for the given ordered sequence of port types.
func Make(types []PortType) (*PortTypeSet, error) {
	if len(types) == 0 {
		return nil, ErrIllegalTypes
	}
	for _, t := range types {
		if t == nil {
			return nil, ErrIllegalTypes
		}
	}
	for i, t := range types {
		if i > 0 && !t.Legal(i) {
			return nil, ErrIllegalTypes
		}
	}

	key := internKey(types)
	internMu.Lock()
	defer internMu.Unlock()
	if existing, ok := internTab.Get(key); ok {
		return existing, nil
	}

	s := &PortTypeSet{
		types:   append([]PortType(nil), types...),
		offsets: make([]int, len(types)),
		index:   map[triple]uint32{},
	}

	off := 0
	for i, t := range types {
		s.offsets[i] = off
		off += t.StorageSize()

		for cidx, desc := range t.Controllers() {
			base := len(s.triples)
			for ctl := range desc.Controls {
				tr := triple{port: i, controller: cidx, control: ctl}
				s.index[tr] = uint32(len(s.triples))
				s.triples = append(s.triples, tr)
			}
			count := len(desc.Controls)
			s.logicals = append(s.logicals, logicalController{port: i, controller: cidx, indexBase: base, count: count})
		}
	}
	s.total = off
	s.indexCount = len(s.triples)
	s.legacyPCIDs = s.logicals

	internTab.Add(key, s)
	return s, nil
}

// Ports returns the number of ports multiplexed into this set.
func (s *PortTypeSet) Ports() int { return len(s.types) }

// Size returns the total per-subframe record size in bytes.
func (s *PortTypeSet) Size() int { return s.total }

// Indices returns the total flat control count.
func (s *PortTypeSet) Indices() int { return s.indexCount }

func (s *PortTypeSet) PortOffset(i int) (int, error) {
	if i < 0 || i >= len(s.types) {
		return 0, ErrBadPortIndex
	}
	return s.offsets[i], nil
}

func (s *PortTypeSet) PortType(i int) (PortType, error) {
	if i < 0 || i >= len(s.types) {
		return nil, ErrBadPortIndex
	}
	return s.types[i], nil
}

// IndexToTriple resolves a flat control index back to (port, controller,
// control). The returned bool is false if k is out of range.
func (s *PortTypeSet) IndexToTriple(k int) (ok bool, port, controller, control int) {
	if k < 0 || k >= len(s.triples) {
		return false, 0, 0, 0
	}
	t := s.triples[k]
	return true, t.port, t.controller, t.control
}

// TripleToIndex resolves (port, controller, control) to a flat index, or
// 0xFFFFFFFF if unmapped.
func (s *PortTypeSet) TripleToIndex(port, controller, control int) uint32 {
	if idx, ok := s.index[triple{port, controller, control}]; ok {
		return idx
	}
	return 0xFFFFFFFF
}

// LCIDToPCID maps a logical controller id to its (port, controller) pair.
func (s *PortTypeSet) LCIDToPCID(lcid int) (port, controller int, err error) {
	if lcid < 0 || lcid >= len(s.logicals) {
		return 0, 0, ErrBadLogicalController
	}
	l := s.logicals[lcid]
	return l.port, l.controller, nil
}

// LegacyPCIDToPair maps a legacy physical controller id to (port,
// controller), preserved for backward-compatible movie files.
func (s *PortTypeSet) LegacyPCIDToPair(pcid int) (port, controller int, err error) {
	if pcid < 0 || pcid >= len(s.legacyPCIDs) {
		return 0, 0, ErrBadLegacyPCID
	}
	l := s.legacyPCIDs[pcid]
	return l.port, l.controller, nil
}
