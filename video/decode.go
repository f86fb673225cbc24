package video

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Decoder reverses Encoder's packet stream back into padded RGB frames,
// for the round-trip tests and any offline packet-stream inspection.
type Decoder struct {
	padW, padH int
	prev       []byte
}

// NewDecoder builds a Decoder for the padded frame size an Encoder with
// the same width/height would have used.
func NewDecoder(width, height int) *Decoder {
	return &Decoder{padW: pad4(width), padH: pad4(height)}
}

// DecodeFrame inflates one packet's payload and reconstructs its padded
// RGB frame (padW*padH*3 bytes), using the internally tracked previous
// frame for non-keyframe packets.
func (d *Decoder) DecodeFrame(p Packet) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(p.Payload))
	if err != nil {
		return nil, fmt.Errorf("video: zlib stream: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("video: zlib decompress: %w", err)
	}

	var prev []byte
	if p.IndexFlags&indexFlagKeyframe == 0 {
		prev = d.prev
	}
	frame, err := msrleDecode(raw, prev, d.padW, d.padH)
	if err != nil {
		return nil, err
	}
	d.prev = frame
	return frame, nil
}
