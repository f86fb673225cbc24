package pngcodec

import (
	"bytes"
	"testing"
)

func solidImage(w, h int, argb uint32) *Image {
	px := make([]uint32, w*h)
	for i := range px {
		px[i] = argb
	}
	return &Image{Width: w, Height: h, BitDepth: 8, ColorType: ColorTrueAlpha, Pixels: px}
}

func TestEncodeDecodeTrueColorAlphaRoundTrip(t *testing.T) {
	src := solidImage(4, 3, 0xFFAABBCC)
	src.Pixels[5] = 0x80112233

	var buf bytes.Buffer
	if err := Encode(&buf, src, EncodeOptions{}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Width != 4 || got.Height != 3 {
		t.Fatalf("dimensions = %dx%d, want 4x3", got.Width, got.Height)
	}
	for i, px := range src.Pixels {
		if got.Pixels[i] != px {
			t.Errorf("pixel %d = %#08x, want %#08x", i, got.Pixels[i], px)
		}
	}
}

func TestEncodeDecodePaletteRoundTrip(t *testing.T) {
	palette := []uint32{0xFFFF0000, 0xFF00FF00, 0xFF0000FF, 0xFFFFFF00}
	indices := []byte{0, 1, 2, 3, 3, 2, 1, 0}
	src := &Image{
		Width: 4, Height: 2, BitDepth: 8, ColorType: ColorPalette,
		Indices: indices,
		Palette: palette,
		Pixels:  make([]uint32, 8),
	}
	for i, idx := range indices {
		src.Pixels[i] = palette[idx]
	}

	var buf bytes.Buffer
	if err := Encode(&buf, src, EncodeOptions{HasPalette: true}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.ColorType != ColorPalette {
		t.Fatalf("ColorType = %d, want ColorPalette", got.ColorType)
	}
	for i, idx := range indices {
		if got.Indices[i] != idx {
			t.Errorf("index %d = %d, want %d", i, got.Indices[i], idx)
		}
	}
	for i, px := range src.Pixels {
		if got.Pixels[i] != px {
			t.Errorf("pixel %d = %#08x, want %#08x", i, got.Pixels[i], px)
		}
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not a png")))
	if err != ErrBadMagic {
		t.Errorf("err = %v, want ErrBadMagic", err)
	}
}

func TestDecodeRejectsZeroDimension(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(pngMagic[:])
	ihdr := encodeIHDR(0, 10, 8, ColorTrueAlpha)
	if err := writeChunk(&buf, "IHDR", ihdr); err != nil {
		t.Fatal(err)
	}
	_, err := Decode(&buf)
	if err != ErrZeroDimension {
		t.Errorf("err = %v, want ErrZeroDimension", err)
	}
}

func TestDecodeRejectsBadChunkCRC(t *testing.T) {
	src := solidImage(2, 2, 0xFFFFFFFF)
	var buf bytes.Buffer
	if err := Encode(&buf, src, EncodeOptions{}); err != nil {
		t.Fatal(err)
	}
	corrupt := buf.Bytes()
	// Flip the last byte of the IHDR payload so the chunk's CRC no longer matches.
	corrupt[8+4+4+13-1] ^= 0xFF

	_, err := Decode(bytes.NewReader(corrupt))
	if err != ErrChunkCRCFail {
		t.Errorf("err = %v, want ErrChunkCRCFail", err)
	}
}

func TestSizeToBits(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{{1, 1}, {2, 1}, {3, 2}, {4, 2}, {5, 4}, {16, 4}, {17, 8}, {256, 8}}
	for _, c := range cases {
		if got := sizeToBits(c.n); got != c.want {
			t.Errorf("sizeToBits(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}
