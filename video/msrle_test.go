package video

import (
	"bytes"
	"testing"
)

func solidFrame(w, h int, r, g, b byte) []byte {
	out := make([]byte, w*h*3)
	for i := 0; i < w*h; i++ {
		out[i*3], out[i*3+1], out[i*3+2] = r, g, b
	}
	return out
}

func TestMSRLEKeyframeRoundTrip(t *testing.T) {
	frame := solidFrame(8, 4, 10, 20, 30)
	enc := msrleEncode(frame, nil, 8, 4)

	dec, err := msrleDecode(enc, nil, 8, 4)
	if err != nil {
		t.Fatalf("msrleDecode: %v", err)
	}
	if !bytes.Equal(dec, frame) {
		t.Error("keyframe round trip mismatch")
	}
}

func TestMSRLEDeltaFrameRoundTrip(t *testing.T) {
	prev := solidFrame(8, 4, 10, 20, 30)
	cur := append([]byte(nil), prev...)
	// Change one pixel in the middle of the frame.
	setPixel(cur, 2, 3, 8, 200, 100, 50)

	enc := msrleEncode(cur, prev, 8, 4)
	dec, err := msrleDecode(enc, prev, 8, 4)
	if err != nil {
		t.Fatalf("msrleDecode: %v", err)
	}
	if !bytes.Equal(dec, cur) {
		t.Error("delta frame round trip mismatch")
	}
}

func TestMSRLERunLongerThan255Pixels(t *testing.T) {
	frame := solidFrame(300, 1, 5, 5, 5)
	enc := msrleEncode(frame, nil, 300, 1)
	dec, err := msrleDecode(enc, nil, 300, 1)
	if err != nil {
		t.Fatalf("msrleDecode: %v", err)
	}
	if !bytes.Equal(dec, frame) {
		t.Error("long run round trip mismatch")
	}
}

func TestMSRLENoiseFrameRoundTrip(t *testing.T) {
	w, h := 16, 9
	frame := make([]byte, w*h*3)
	for i := range frame {
		frame[i] = byte(i * 37 % 256)
	}
	enc := msrleEncode(frame, nil, w, h)
	dec, err := msrleDecode(enc, nil, w, h)
	if err != nil {
		t.Fatalf("msrleDecode: %v", err)
	}
	if !bytes.Equal(dec, frame) {
		t.Error("noise frame round trip mismatch")
	}
}

func TestMSRLEDecodeRejectsTruncatedStream(t *testing.T) {
	frame := solidFrame(4, 2, 1, 2, 3)
	enc := msrleEncode(frame, nil, 4, 2)
	_, err := msrleDecode(enc[:len(enc)-3], nil, 4, 2)
	if err == nil {
		t.Fatal("expected an error decoding a truncated MSRLE stream")
	}
}
