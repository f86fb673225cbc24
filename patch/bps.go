// Package patch implements the BPS binary patch format applier used to
// transform ROM images before they are loaded into an emulator core
// (§4.7, §6.5). The varint encoding, opcode layout, and CRC-32 footer
// checks follow the BPS1 format exactly as lsnes's patcher implements it.
package patch

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

var bpsMagic = [4]byte{'B', 'P', 'S', '1'}

// IsBPS reports whether patch begins with the BPS1 magic and is long
// enough to possibly be valid.
func IsBPS(p []byte) bool {
	return len(p) > 4 && p[0] == bpsMagic[0] && p[1] == bpsMagic[1] && p[2] == bpsMagic[2] && p[3] == bpsMagic[3]
}

type reader struct {
	buf []byte
	pos uint64
	lim uint64
}

func (r *reader) byte() (byte, error) {
	if r.pos >= r.lim {
		return 0, fmt.Errorf("patch: attempted to read byte past end of patch (%d >= %d)", r.pos, r.lim)
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// varint decodes one BPS variable-length integer: 7 data bits per byte,
// high bit set only on the final byte, each byte after the first adding
// a base offset of 2^(7*i) to the running total.
func (r *reader) varint() (uint64, error) {
	var v uint64
	for i := 0; i < 10; i++ {
		b, err := r.byte()
		if err != nil {
			return 0, err
		}
		y := uint64(b) ^ 0x80
		v += y << (7 * uint(i))
		if i == 9 && y > 0 {
			return 0, fmt.Errorf("patch: varint decoding overflows: v=%d y=%d", v, y)
		}
		if y < 128 {
			return v, nil
		}
	}
	return 0, fmt.Errorf("patch: varint did not terminate")
}

func safeAdd(a, b uint64) (uint64, error) {
	s := a + b
	if s < a {
		return 0, fmt.Errorf("patch: integer overflow (%d + %d) processing patch", a, b)
	}
	return s, nil
}

func safeSub(a, b uint64) (uint64, error) {
	if a < b {
		return 0, fmt.Errorf("patch: integer underflow (%d - %d) processing patch", a, b)
	}
	return a - b, nil
}

// Apply applies a BPS1 patch to original, returning the patched image. It
// verifies every CRC-32 the format carries (source, target, and the
// patch's own trailer) and refuses to produce output if any fails.
func Apply(original, p []byte) ([]byte, error) {
	if len(p) < 19 {
		return nil, fmt.Errorf("patch: too small to be a valid BPS patch (%d < 19)", len(p))
	}
	if !IsBPS(p) {
		return nil, fmt.Errorf("patch: missing BPS1 magic")
	}

	psize := uint64(len(p)) - 12
	pchcrcClaimed := binary.LittleEndian.Uint32(p[psize+8 : psize+12])
	pchcrcActual := crc32.ChecksumIEEE(p[:len(p)-4])
	if pchcrcActual != pchcrcClaimed {
		return nil, fmt.Errorf("patch: CRC mismatch on patch: claimed %d actual %d", pchcrcClaimed, pchcrcActual)
	}
	srccrcClaimed := binary.LittleEndian.Uint32(p[psize+0 : psize+4])
	dstcrcClaimed := binary.LittleEndian.Uint32(p[psize+4 : psize+8])

	r := &reader{buf: p, pos: 4, lim: psize}
	srcsize, err := r.varint()
	if err != nil {
		return nil, err
	}
	dstsize, err := r.varint()
	if err != nil {
		return nil, err
	}
	mdtsize, err := r.varint()
	if err != nil {
		return nil, err
	}
	newPos, err := safeAdd(r.pos, mdtsize)
	if err != nil {
		return nil, err
	}
	if newPos > psize {
		return nil, fmt.Errorf("patch: metadata size invalid: %d@%d, limit=%d", mdtsize, r.pos, psize)
	}
	r.pos = newPos

	if srcsize != uint64(len(original)) {
		return nil, fmt.Errorf("patch: size mismatch on original: claimed %d actual %d", srcsize, len(original))
	}
	srccrcActual := crc32.ChecksumIEEE(original)
	if srccrcActual != srccrcClaimed {
		return nil, fmt.Errorf("patch: CRC mismatch on original: claimed %d actual %d", srccrcClaimed, srccrcActual)
	}

	out := make([]byte, dstsize)
	var targetPtr, sourceRptr, targetRptr uint64

	for r.pos < psize {
		opc, err := r.varint()
		if err != nil {
			return nil, err
		}
		length := (opc >> 2) + 1
		var off uint64
		if opc&2 != 0 {
			off, err = r.varint()
			if err != nil {
				return nil, err
			}
		}
		negative := off&1 != 0
		off >>= 1

		end, err := safeAdd(targetPtr, length)
		if err != nil {
			return nil, err
		}
		if end > dstsize {
			return nil, fmt.Errorf("patch: illegal write: %d@%d, limit=%d", length, targetPtr, dstsize)
		}

		var src []byte
		var srcoffset, srclimit uint64
		var msg string
		switch opc & 3 {
		case 0: // SourceRead
			src = original
			srcoffset = targetPtr
			srclimit = srcsize
			msg = "source"
		case 1: // TargetRead
			src = p
			srcoffset = r.pos
			srclimit = psize - 12
			r.pos += length
			msg = "patch"
		case 2: // SourceCopy
			if negative {
				sourceRptr, err = safeSub(sourceRptr, off)
			} else {
				sourceRptr, err = safeAdd(sourceRptr, off)
			}
			if err != nil {
				return nil, err
			}
			src = original
			srcoffset = sourceRptr
			srclimit = srcsize
			sourceRptr += length
			msg = "source"
		case 3: // TargetCopy
			if negative {
				targetRptr, err = safeSub(targetRptr, off)
			} else {
				targetRptr, err = safeAdd(targetRptr, off)
			}
			if err != nil {
				return nil, err
			}
			src = out
			srcoffset = targetRptr
			srclimit = min64(dstsize, targetRptr+length)
			targetRptr += length
			msg = "target"
		}

		readEnd, err := safeAdd(srcoffset, length)
		if err != nil {
			return nil, err
		}
		if readEnd > srclimit {
			return nil, fmt.Errorf("patch: illegal read: %d@%d from %s, limit=%d", length, srcoffset, msg, srclimit)
		}
		// TargetCopy reads byte-by-byte because src and dst overlap: earlier
		// bytes of this very op must be visible to later bytes within it.
		for i := uint64(0); i < length; i++ {
			out[targetPtr+i] = src[srcoffset+i]
		}
		targetPtr += length
	}

	if targetPtr != uint64(len(out)) {
		return nil, fmt.Errorf("patch: size mismatch on result: claimed %d actual %d", len(out), targetPtr)
	}
	dstcrcActual := crc32.ChecksumIEEE(out)
	if dstcrcActual != dstcrcClaimed {
		return nil, fmt.Errorf("patch: CRC mismatch on result: claimed %d actual %d", dstcrcClaimed, dstcrcActual)
	}
	return out, nil
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
