package controller

// ControllerPageSize bounds the raw byte size of one page, chosen to
// stay under 64 KiB after per-page bookkeeping overhead.
const ControllerPageSize = 65500

type page struct {
	data []byte // frames_per_page * frameSize bytes
}

// FrameVector is an append-only/indexable sequence of controller frames,
// stored in fixed-size pages with a 1-slot page cache accelerating
// sequential scans.
type FrameVector struct {
	types         *PortTypeSet
	frameSize     int
	framesPerPage int
	pages         []*page
	count         int // total frames currently stored

	cachedPageNo  int
	cachedPage    *page
	cacheValid    bool
}

// NewFrameVector returns an empty vector for the given type set.
func NewFrameVector(types *PortTypeSet) *FrameVector {
	fs := types.Size()
	fpp := ControllerPageSize / fs
	if fpp < 1 {
		fpp = 1
	}
	return &FrameVector{types: types, frameSize: fs, framesPerPage: fpp}
}

func (v *FrameVector) Types() *PortTypeSet { return v.types }

// Size returns the number of subframes currently stored.
func (v *FrameVector) Size() int { return v.count }

func (v *FrameVector) invalidateCache() { v.cacheValid = false }

func (v *FrameVector) pageFor(frameIdx int) (*page, int) {
	pno := frameIdx / v.framesPerPage
	if v.cacheValid && v.cachedPageNo == pno {
		return v.cachedPage, pno
	}
	for len(v.pages) <= pno {
		v.pages = append(v.pages, &page{data: make([]byte, v.framesPerPage*v.frameSize)})
	}
	p := v.pages[pno]
	v.cachedPageNo = pno
	v.cachedPage = p
	v.cacheValid = true
	return p, pno
}

// frameBytes returns the backing slice for frame i, allocating pages as
// needed (used internally by Append/Resize growth).
func (v *FrameVector) frameBytes(i int) []byte {
	p, pno := v.pageFor(i)
	off := (i - pno*v.framesPerPage) * v.frameSize
	return p.data[off : off+v.frameSize]
}

// At returns a frame view (borrowed) over subframe i. The caller must not
// retain it across structural modifications of the vector.
func (v *FrameVector) At(i int) ControllerFrame {
	return WrapFrame(v.frameBytes(i), v.types)
}

// Append adds a copy of f to the end of the vector.
func (v *FrameVector) Append(f *ControllerFrame) {
	dst := v.frameBytes(v.count)
	copy(dst, f.backingStorage())
	v.count++
	v.invalidateCache()
}

// BlankFrame returns a dedicated all-zero frame with the given sync bit.
func (v *FrameVector) BlankFrame(sync bool) ControllerFrame {
	f := NewFrame(v.types)
	f.SetSync(sync)
	return f
}

// Resize truncates or extends the vector to exactly n frames. Extension
// frames are all-zero (hence unsynced). Resize is transactional: if an
// extension allocation were to fail, no partial state is retained — Go's
// allocator panics rather than returning an error, so this always
// succeeds or the process is already out of memory.
func (v *FrameVector) Resize(n int) {
	if n < 0 {
		n = 0
	}
	if n < v.count {
		keepPages := (n + v.framesPerPage - 1) / v.framesPerPage
		if n == 0 {
			keepPages = 0
		}
		if keepPages < len(v.pages) {
			v.pages = v.pages[:keepPages]
		}
		if n > 0 {
			// zero the tail of the partially retained page past n
			lastPageNo := (n - 1) / v.framesPerPage
			if lastPageNo < len(v.pages) {
				p := v.pages[lastPageNo]
				startOff := (n - lastPageNo*v.framesPerPage) * v.frameSize
				for i := startOff; i < len(p.data); i++ {
					p.data[i] = 0
				}
			}
		}
		v.count = n
		v.invalidateCache()
		return
	}
	if n > v.count {
		for i := v.count; i < n; i++ {
			v.frameBytes(i) // touch to allocate pages; already zeroed
		}
		v.count = n
		v.invalidateCache()
	}
}

// WalkSync returns the least k in (from, size] such that k == size or
// frame[k] has sync set; if from >= size it returns from unchanged.
func (v *FrameVector) WalkSync(from int) int {
	if from >= v.count {
		return from
	}
	for k := from + 1; k < v.count; k++ {
		if v.At(k).Sync() {
			return k
		}
	}
	return v.count
}

// SubframeCount returns the number of subframes in the emulated frame that
// begins at subframe index `from`.
func (v *FrameVector) SubframeCount(from int) int {
	return v.WalkSync(from) - from
}

// CountFrames returns the number of emulated (sync) frames in the vector.
func (v *FrameVector) CountFrames() int {
	n := 0
	for i := 0; i < v.count; i++ {
		if v.At(i).Sync() {
			n++
		}
	}
	return n
}
