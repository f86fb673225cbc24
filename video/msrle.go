// Package video implements the MSRLE-24/TSCC video codec used to dump
// emulated frames into an AVI container, following lsnes's AVI dumper
// (src/lua/avidump.cpp-equivalent packet model, see §6.5) without the
// AVI container itself, which is a thin caller-side concern.
package video

import "fmt"

// MSRLE opcode second-byte values when the first byte is 0x00.
const (
	opEOL    = 0x00
	opEOB    = 0x01
	opSkip   = 0x02
)

func pixelAt(buf []byte, y, x, width int) (r, g, b byte) {
	off := (y*width + x) * 3
	return buf[off], buf[off+1], buf[off+2]
}

func setPixel(buf []byte, y, x, width int, r, g, b byte) {
	off := (y*width + x) * 3
	buf[off], buf[off+1], buf[off+2] = r, g, b
}

func pixelEqual(a, b []byte, y, x, width int) bool {
	off := (y*width + x) * 3
	return a[off] == b[off] && a[off+1] == b[off+1] && a[off+2] == b[off+2]
}

// msrleEncode produces an MSRLE-24 byte stream for cur (width*height*3
// packed RGB, row-major) relative to prev. prev == nil forces every
// pixel to be encoded as a fresh run (used for keyframes).
//
// Per row: runs of pixels unchanged from prev are replaced with a 00 02
// dx dy cursor-advance opcode (dy is always 0 — this encoder never skips
// across row boundaries); every other run of identical pixels becomes an
// N B G R run, falling back to N=1 for a single non-repeating pixel. Runs
// longer than 255 pixels are split across multiple opcodes, since both N
// and dx are single bytes.
func msrleEncode(cur, prev []byte, width, height int) []byte {
	var out []byte
	for y := 0; y < height; y++ {
		x := 0
		for x < width {
			if prev != nil && pixelEqual(cur, prev, y, x, width) {
				n := 1
				for x+n < width && pixelEqual(cur, prev, y, x+n, width) {
					n++
				}
				out = append(out, emitChunked(n, func(chunk int) []byte {
					return []byte{0x00, opSkip, byte(chunk), 0x00}
				})...)
				x += n
				continue
			}

			r, g, b := pixelAt(cur, y, x, width)
			n := 1
			for x+n < width {
				r2, g2, b2 := pixelAt(cur, y, x+n, width)
				if r2 != r || g2 != g || b2 != b {
					break
				}
				n++
			}
			out = append(out, emitChunked(n, func(chunk int) []byte {
				return []byte{byte(chunk), b, g, r}
			})...)
			x += n
		}
		out = append(out, 0x00, opEOL)
	}
	return out
}

// emitChunked splits a run of length n into ≤255-length opcodes, using
// build(chunk) to produce each opcode's bytes.
func emitChunked(n int, build func(chunk int) []byte) []byte {
	var out []byte
	for n > 0 {
		chunk := n
		if chunk > 255 {
			chunk = 255
		}
		out = append(out, build(chunk)...)
		n -= chunk
	}
	return out
}

// msrleDecode reverses msrleEncode, reconstructing a width*height*3 RGB
// buffer from data given the same prev buffer the encoder used (nil for
// a keyframe).
func msrleDecode(data, prev []byte, width, height int) ([]byte, error) {
	out := make([]byte, width*height*3)
	pos, y, x := 0, 0, 0

	for y < height {
		if pos+1 >= len(data) {
			return nil, fmt.Errorf("video: MSRLE stream truncated at row %d, col %d", y, x)
		}
		b0, b1 := data[pos], data[pos+1]
		if b0 == 0x00 {
			switch b1 {
			case opEOL:
				pos += 2
				y++
				x = 0
				continue
			case opEOB:
				return out, nil
			case opSkip:
				if pos+3 >= len(data) {
					return nil, fmt.Errorf("video: truncated cursor-advance opcode at row %d", y)
				}
				dx := int(data[pos+2])
				if prev == nil {
					return nil, fmt.Errorf("video: cursor-advance opcode on a keyframe (no previous frame)")
				}
				if x+dx > width {
					return nil, fmt.Errorf("video: cursor-advance overruns row width at row %d", y)
				}
				for i := 0; i < dx; i++ {
					r, g, b := pixelAt(prev, y, x+i, width)
					setPixel(out, y, x+i, width, r, g, b)
				}
				x += dx
				pos += 4
				continue
			default:
				return nil, fmt.Errorf("video: unknown MSRLE opcode 00 %02x", b1)
			}
		}

		if pos+3 >= len(data) {
			return nil, fmt.Errorf("video: truncated run opcode at row %d", y)
		}
		n := int(b0)
		b, g, r := data[pos+1], data[pos+2], data[pos+3]
		if x+n > width {
			return nil, fmt.Errorf("video: run opcode overruns row width at row %d", y)
		}
		for i := 0; i < n; i++ {
			setPixel(out, y, x+i, width, r, g, b)
		}
		x += n
		pos += 4
	}
	return out, nil
}
