package pngcodec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zlib"
)

// EncodeOptions controls how Encode chooses its output representation.
type EncodeOptions struct {
	// HasPalette requests paletted output; Palette and Indices on the
	// source Image must be populated. Depth is chosen automatically via
	// sizeToBits based on len(Palette).
	HasPalette bool
	// CompressionLevel is passed to the zlib writer (0-9); zero uses the
	// zlib default.
	CompressionLevel int
}

// sizeToBits returns the smallest PNG-legal bit depth (1, 2, 4, or 8)
// that can index a palette of n entries.
func sizeToBits(n int) int {
	switch {
	case n <= 2:
		return 1
	case n <= 4:
		return 2
	case n <= 16:
		return 4
	default:
		return 8
	}
}

// Encode writes img as a PNG stream: IHDR, optional PLTE/tRNS, a single
// zlib-wrapped IDAT, then IEND.
func Encode(w io.Writer, img *Image, opts EncodeOptions) error {
	if img.Width == 0 || img.Height == 0 {
		return ErrZeroDimension
	}
	if _, err := w.Write(pngMagic[:]); err != nil {
		return err
	}

	colorType := ColorTrueAlpha
	depth := 8
	var palette []uint32
	var trns []byte
	var raw []byte

	if opts.HasPalette && len(img.Palette) > 0 {
		colorType = ColorPalette
		depth = sizeToBits(len(img.Palette))
		palette, trns = splitPaletteAlpha(img.Palette)
		raw = packPaletteIndices(img, depth)
	} else {
		raw = packTrueColorAlpha(img)
	}

	if err := writeChunk(w, "IHDR", encodeIHDR(img.Width, img.Height, depth, colorType)); err != nil {
		return err
	}
	if palette != nil {
		if err := writeChunk(w, "PLTE", encodePLTE(palette)); err != nil {
			return err
		}
		if hasNonOpaque(trns) {
			if err := writeChunk(w, "tRNS", trns); err != nil {
				return err
			}
		}
	}

	bpp := bitsPerPixel(colorType, depth)
	rb := rowBytes(img.Width, bpp)
	filtered := filterNoneEncode(raw, img.Height, rb)

	var zbuf bytes.Buffer
	level := opts.CompressionLevel
	if level == 0 {
		level = zlib.DefaultCompression
	}
	zw, err := zlib.NewWriterLevel(&zbuf, level)
	if err != nil {
		return fmt.Errorf("pngcodec: zlib writer: %w", err)
	}
	if _, err := zw.Write(filtered); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	if err := writeChunk(w, "IDAT", zbuf.Bytes()); err != nil {
		return err
	}
	return writeChunk(w, "IEND", nil)
}

func encodeIHDR(width, height, depth, colorType int) []byte {
	buf := make([]byte, 13)
	binary.BigEndian.PutUint32(buf[0:4], uint32(width))
	binary.BigEndian.PutUint32(buf[4:8], uint32(height))
	buf[8] = byte(depth)
	buf[9] = byte(colorType)
	buf[10] = 0 // compression
	buf[11] = 0 // filter
	buf[12] = 0 // interlace: encoder never produces Adam7 output
	return buf
}

func encodePLTE(palette []uint32) []byte {
	out := make([]byte, len(palette)*3)
	for i, c := range palette {
		out[i*3] = byte(c >> 16)
		out[i*3+1] = byte(c >> 8)
		out[i*3+2] = byte(c)
	}
	return out
}

func splitPaletteAlpha(palette []uint32) (rgb []uint32, trns []byte) {
	rgb = append([]uint32(nil), palette...)
	trns = make([]byte, len(palette))
	for i, c := range palette {
		trns[i] = byte(c >> 24)
	}
	return rgb, trns
}

func hasNonOpaque(trns []byte) bool {
	for _, a := range trns {
		if a != 0xFF {
			return true
		}
	}
	return false
}

func packTrueColorAlpha(img *Image) []byte {
	out := make([]byte, img.Width*img.Height*4)
	for i, px := range img.Pixels {
		out[i*4] = byte(px >> 16)
		out[i*4+1] = byte(px >> 8)
		out[i*4+2] = byte(px)
		out[i*4+3] = byte(px >> 24)
	}
	return out
}

// packPaletteIndices packs img.Indices into depth-bit samples, MSB-first
// within each byte, padding the final byte of each row with zero bits.
func packPaletteIndices(img *Image, depth int) []byte {
	bpp := depth
	rb := rowBytes(img.Width, bpp)
	out := make([]byte, rb*img.Height)
	for y := 0; y < img.Height; y++ {
		bit := 0
		for x := 0; x < img.Width; x++ {
			v := img.Indices[y*img.Width+x]
			byteOff := y*rb + bit/8
			shift := 8 - depth - (bit % 8)
			out[byteOff] |= v << uint(shift)
			bit += depth
		}
	}
	return out
}

func writeChunk(w io.Writer, typ string, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	h := crc32.NewIEEE()
	io.WriteString(h, typ)
	h.Write(payload)

	if _, err := io.WriteString(w, typ); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], h.Sum32())
	_, err := w.Write(crcBuf[:])
	return err
}
