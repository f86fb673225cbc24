package video

import "testing"

func solidRGBA(w, h int, r, g, b, a byte) []byte {
	out := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		out[i*4], out[i*4+1], out[i*4+2], out[i*4+3] = r, g, b, a
	}
	return out
}

func TestEncoderPacketFieldsAndKeyframing(t *testing.T) {
	enc, err := NewEncoder(5, 3, 2, 0) // keyint=2 -> keyframe every 3rd frame (0,3,6,...)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	defer enc.Close()

	frame := solidRGBA(5, 3, 1, 2, 3, 255)
	wantKeyframe := []bool{true, false, false, true, false}
	for i, want := range wantKeyframe {
		p, err := enc.EncodeFrame(frame)
		if err != nil {
			t.Fatalf("EncodeFrame %d: %v", i, err)
		}
		if p.TypeCode != typeCodeDB {
			t.Errorf("frame %d: TypeCode = %#x, want %#x", i, p.TypeCode, typeCodeDB)
		}
		isKey := p.IndexFlags&indexFlagKeyframe != 0
		if isKey != want {
			t.Errorf("frame %d: keyframe = %v, want %v", i, isKey, want)
		}
		if len(p.Payload) == 0 {
			t.Errorf("frame %d: empty payload", i)
		}
	}
}

func TestEncoderDecoderRoundTrip(t *testing.T) {
	width, height := 6, 5 // not a multiple of 4, exercises padding
	enc, err := NewEncoder(width, height, 100, 0)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	defer enc.Close()
	dec := NewDecoder(width, height)

	frame1 := solidRGBA(width, height, 10, 20, 30, 255)
	p1, err := enc.EncodeFrame(frame1)
	if err != nil {
		t.Fatalf("EncodeFrame 1: %v", err)
	}
	got1, err := dec.DecodeFrame(p1)
	if err != nil {
		t.Fatalf("DecodeFrame 1: %v", err)
	}
	if len(got1) != pad4(width)*pad4(height)*3 {
		t.Fatalf("decoded frame 1 len = %d, want %d", len(got1), pad4(width)*pad4(height)*3)
	}

	frame2 := solidRGBA(width, height, 10, 20, 30, 255)
	// Mutate one visible pixel.
	frame2[0], frame2[1], frame2[2] = 200, 201, 202

	p2, err := enc.EncodeFrame(frame2)
	if err != nil {
		t.Fatalf("EncodeFrame 2: %v", err)
	}
	got2, err := dec.DecodeFrame(p2)
	if err != nil {
		t.Fatalf("DecodeFrame 2: %v", err)
	}
	if got2[0] != 200 || got2[1] != 201 || got2[2] != 202 {
		t.Errorf("decoded frame 2 pixel 0 = %v, want [200 201 202]", got2[:3])
	}
}

func TestPad4(t *testing.T) {
	cases := []struct{ in, want int }{{0, 0}, {1, 4}, {4, 4}, {5, 8}, {8, 8}, {9, 12}}
	for _, c := range cases {
		if got := pad4(c.in); got != c.want {
			t.Errorf("pad4(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestEncodeFrameRejectsWrongSize(t *testing.T) {
	enc, err := NewEncoder(4, 4, 10, 0)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	defer enc.Close()
	if _, err := enc.EncodeFrame(make([]byte, 10)); err == nil {
		t.Fatal("expected an error for a mis-sized frame")
	}
}
