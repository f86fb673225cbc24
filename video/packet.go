package video

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zlib"
)

// Packet is one AVI video chunk: the fourcc "TSCC" stream's per-frame
// payload, deflated MSRLE24 data tagged with the classic "db" uncompressed
// DIB chunk type code and an AVI index keyframe flag.
type Packet struct {
	TypeCode   uint16 // 0x6264 ("db")
	IndexFlags byte   // 0x10 on keyframes, 0x00 otherwise
	Payload    []byte
	Hidden     bool
}

const (
	typeCodeDB        = 0x6264
	indexFlagKeyframe = 0x10
)

// pad4 rounds v up to the next multiple of 4, the alignment AVI/BMP
// scanlines require.
func pad4(v int) int {
	return (v + 3) &^ 3
}

// Encoder turns successive RGBA8 frames into TSCC/MSRLE24 AVI packets,
// keeping a padded-RGB previous-frame buffer for delta compression and a
// zlib writer that is closed and reset for every packet, so each packet's
// payload is an independently decodable zlib stream.
type Encoder struct {
	width, height int // original, caller-supplied dimensions
	padW, padH    int
	keyint        int
	frameIdx      int
	prev          []byte // padded RGB, nil until the first frame is encoded
	zbuf          *bytes.Buffer
	zw            *zlib.Writer
}

// NewEncoder builds an Encoder for width x height RGBA8 frames, forcing a
// keyframe every keyint+1 frames, deflating at the given zlib compression
// level (0-9; 0 selects the zlib default).
func NewEncoder(width, height, keyint, level int) (*Encoder, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("video: invalid frame size %dx%d", width, height)
	}
	if level == 0 {
		level = zlib.DefaultCompression
	}
	zbuf := &bytes.Buffer{}
	zw, err := zlib.NewWriterLevel(zbuf, level)
	if err != nil {
		return nil, fmt.Errorf("video: zlib writer: %w", err)
	}
	return &Encoder{
		width:  width,
		height: height,
		padW:   pad4(width),
		padH:   pad4(height),
		keyint: keyint,
		zbuf:   zbuf,
		zw:     zw,
	}, nil
}

// padRGBA converts a tightly packed RGBA8 frame to a padded RGB buffer,
// replicating the last real column/row into the padding region so delta
// runs over the border stay stable across frames.
func (e *Encoder) padRGBA(rgba []byte) []byte {
	out := make([]byte, e.padW*e.padH*3)
	for y := 0; y < e.padH; y++ {
		sy := y
		if sy >= e.height {
			sy = e.height - 1
		}
		for x := 0; x < e.padW; x++ {
			sx := x
			if sx >= e.width {
				sx = e.width - 1
			}
			so := (sy*e.width + sx) * 4
			do := (y*e.padW + x) * 3
			out[do] = rgba[so]     // R
			out[do+1] = rgba[so+1] // G
			out[do+2] = rgba[so+2] // B
		}
	}
	return out
}

// EncodeFrame encodes one RGBA8 frame (width*height*4 bytes, row-major)
// into an AVI packet. Every keyint+1'th frame (starting with the first)
// is a keyframe: the previous-frame buffer is ignored for that frame's
// MSRLE encoding.
func (e *Encoder) EncodeFrame(rgba []byte) (Packet, error) {
	if len(rgba) != e.width*e.height*4 {
		return Packet{}, fmt.Errorf("video: frame size %d, want %d", len(rgba), e.width*e.height*4)
	}

	cur := e.padRGBA(rgba)

	isKeyframe := e.frameIdx%(e.keyint+1) == 0
	var prev []byte
	if !isKeyframe {
		prev = e.prev
	}

	raw := msrleEncode(cur, prev, e.padW, e.padH)
	if _, err := e.zw.Write(raw); err != nil {
		return Packet{}, fmt.Errorf("video: deflate: %w", err)
	}
	if err := e.zw.Close(); err != nil {
		return Packet{}, fmt.Errorf("video: deflate close: %w", err)
	}
	payload := append([]byte(nil), e.zbuf.Bytes()...)
	e.zbuf.Reset()
	e.zw.Reset(e.zbuf)

	e.prev = cur
	e.frameIdx++

	flags := byte(0)
	if isKeyframe {
		flags = indexFlagKeyframe
	}
	return Packet{TypeCode: typeCodeDB, IndexFlags: flags, Payload: payload}, nil
}

// Close closes the underlying zlib writer. Every packet's stream is
// already complete when EncodeFrame returns; the bytes Close produces for
// the unused writer belong to no packet and are discarded.
func (e *Encoder) Close() error {
	return e.zw.Close()
}
