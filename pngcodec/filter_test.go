package pngcodec

import "testing"

func TestPaethPredictor(t *testing.T) {
	// a == b == c: paeth should pick a (all three candidates tie, a wins).
	if got := paeth(10, 10, 10); got != 10 {
		t.Errorf("paeth(10,10,10) = %d, want 10", got)
	}
}

func TestBitsPerPixel(t *testing.T) {
	cases := []struct {
		colorType, depth, want int
	}{
		{ColorGray, 8, 8},
		{ColorTrueColor, 8, 24},
		{ColorPalette, 8, 8},
		{ColorPalette, 4, 4},
		{ColorGrayAlpha, 8, 16},
		{ColorTrueAlpha, 8, 32},
	}
	for _, c := range cases {
		if got := bitsPerPixel(c.colorType, c.depth); got != c.want {
			t.Errorf("bitsPerPixel(%d,%d) = %d, want %d", c.colorType, c.depth, got, c.want)
		}
	}
}

func TestRowBytes(t *testing.T) {
	if got := rowBytes(5, 1); got != 1 {
		t.Errorf("rowBytes(5,1) = %d, want 1", got)
	}
	if got := rowBytes(9, 1); got != 2 {
		t.Errorf("rowBytes(9,1) = %d, want 2", got)
	}
	if got := rowBytes(4, 32); got != 16 {
		t.Errorf("rowBytes(4,32) = %d, want 16", got)
	}
}
