package controller

// ControllerFrame is one subframe of input: either a fixed-capacity inline
// buffer the frame owns, or a borrowed slice (typically a window into a
// FrameVector page). Assignment between frames is only safe when the
// destination owns its storage or both frames share a type set (§4.1).
type ControllerFrame struct {
	types   *PortTypeSet
	owned   [MAXIMUM_CONTROLLER_FRAME_SIZE]byte
	backing []byte // nil if using `owned`
	size    int
}

// backingStorage returns the live slice backing this frame, sized to the
// type set's record length.
func (f *ControllerFrame) backingStorage() []byte {
	if f.backing != nil {
		return f.backing
	}
	return f.owned[:f.size]
}

// NewFrame returns a frame with dedicated (owned) zeroed storage for the
// given type set.
func NewFrame(types *PortTypeSet) ControllerFrame {
	f := ControllerFrame{types: types, size: types.Size()}
	return f
}

// WrapFrame returns a frame borrowing mem as its storage. mem must be at
// least types.Size() bytes; the frame does not copy it.
func WrapFrame(mem []byte, types *PortTypeSet) ControllerFrame {
	return ControllerFrame{types: types, backing: mem, size: types.Size()}
}

// Types returns the frame's port type set.
func (f *ControllerFrame) Types() *PortTypeSet { return f.types }

// IsOwned reports whether the frame holds dedicated storage.
func (f *ControllerFrame) IsOwned() bool { return f.backing == nil }

// TypesMatch reports whether f and other share the same (canonical) type
// set.
func (f *ControllerFrame) TypesMatch(other *ControllerFrame) bool {
	return f.types == other.types
}

// Assign copies other into f. Permitted when the type sets match or f owns
// its storage (in which case f also adopts other's type set).
func (f *ControllerFrame) Assign(other *ControllerFrame) error {
	if f.types != other.types && !f.IsOwned() {
		return ErrTypeMismatch
	}
	f.types = other.types
	f.size = other.size
	if f.backing == nil {
		copy(f.owned[:f.size], other.backingStorage())
	} else {
		copy(f.backing[:f.size], other.backingStorage())
	}
	return nil
}

// Copy returns a dedicated (owned) duplicate of f, with the sync flag
// forced to the given value.
func (f *ControllerFrame) Copy(sync bool) ControllerFrame {
	c := NewFrame(f.types)
	copy(c.owned[:c.size], f.backingStorage())
	c.SetSync(sync)
	return c
}

// SetSync sets or clears the sync flag: bit 0 of byte 0 of the record.
func (f *ControllerFrame) SetSync(v bool) {
	b := f.backingStorage()
	if len(b) == 0 {
		return
	}
	if v {
		b[0] |= 1
	} else {
		b[0] &^= 1
	}
}

// Sync reports the sync flag.
func (f *ControllerFrame) Sync() bool {
	b := f.backingStorage()
	return len(b) > 0 && b[0]&1 != 0
}

// XOR returns a new owned frame holding the byte-wise XOR of f and other,
// which must share a type set.
func (f *ControllerFrame) XOR(other *ControllerFrame) (ControllerFrame, error) {
	if f.types != other.types {
		return ControllerFrame{}, ErrTypeMismatch
	}
	r := NewFrame(f.types)
	a, b := f.backingStorage(), other.backingStorage()
	for i := 0; i < r.size; i++ {
		r.owned[i] = a[i] ^ b[i]
	}
	return r, nil
}

// Axis3 writes a value to (port, controller, control), silently dropping
// the write if the port index is out of range.
func (f *ControllerFrame) Axis3(port, controller, control int, value int16) {
	if port < 0 || port >= f.types.Ports() {
		return
	}
	off, _ := f.types.PortOffset(port)
	pt, _ := f.types.PortType(port)
	sz := pt.StorageSize()
	pt.Write(f.backingStorage()[off:off+sz], controller, control, value)
}

// Axis3Read reads the value at (port, controller, control); out-of-range
// ports read as zero.
func (f *ControllerFrame) Axis3Read(port, controller, control int) int16 {
	if port < 0 || port >= f.types.Ports() {
		return 0
	}
	off, _ := f.types.PortOffset(port)
	pt, _ := f.types.PortType(port)
	sz := pt.StorageSize()
	return pt.Read(f.backingStorage()[off:off+sz], controller, control)
}

// Axis2 writes a value via the flat control index table; invalid indices
// are a silent no-op.
func (f *ControllerFrame) Axis2(idx int, value int16) {
	ok, port, controller, control := f.types.IndexToTriple(idx)
	if !ok {
		return
	}
	f.Axis3(port, controller, control, value)
}

// Axis2Read reads via the flat control index table; invalid indices read
// as zero.
func (f *ControllerFrame) Axis2Read(idx int) int16 {
	ok, port, controller, control := f.types.IndexToTriple(idx)
	if !ok {
		return 0
	}
	return f.Axis3Read(port, controller, control)
}

// Serialize appends the textual form of the frame to dst and returns it,
// concatenating each port's serialization in port order and terminating
// with a NUL byte.
func (f *ControllerFrame) Serialize(dst []byte) []byte {
	buf := f.backingStorage()
	for i := 0; i < f.types.Ports(); i++ {
		off, _ := f.types.PortOffset(i)
		pt, _ := f.types.PortType(i)
		sz := pt.StorageSize()
		dst = pt.Serialize(buf[off:off+sz], dst)
	}
	dst = append(dst, 0)
	return dst
}

// Deserialize parses text into the frame in place, invoking each port's
// Deserialize in turn and skipping to the next field terminator between
// ports. See DeserializeSpecialBlank for the zero-storage-port exception
// preserved from the source format (§9).
func (f *ControllerFrame) Deserialize(text []byte) {
	buf := f.backingStorage()
	offset := 0
	for i := 0; i < f.types.Ports(); i++ {
		poff, _ := f.types.PortOffset(i)
		pt, _ := f.types.PortType(i)
		sz := pt.StorageSize()
		if offset > len(text) {
			offset = len(text)
		}
		s := pt.Deserialize(text[offset:], buf[poff:poff+sz])
		if s == DeserializeSpecialBlank {
			continue
		}
		offset += s
		for offset < len(text) && isNonTerminator(text[offset]) {
			offset++
		}
		if offset < len(text) && text[offset] == '|' {
			offset++
		}
	}
}
