// Package audio implements the emulation core's audio mixer: a ring of
// music buffers fed once per frame by the emulator core, two voice SPSC
// rings for a (currently unused but wired) microphone/speaker path, cubic
// Hermite resampling to the output rate, clock-drift rubber-banding, and
// VU metering. When no audio driver is bound, a dummy pump goroutine
// drains the music ring so producers never stall.
package audio

import "errors"

// musicRingSize is the number of buffers in the producer/consumer ring.
// Eight gives the emulation thread enough slack to submit several frames
// ahead of a slow or absent consumer without blocking.
const musicRingSize = 8

// musicBufSize is the maximum sample count (not frame count) a single
// music buffer can hold.
const musicBufSize = 16384

// ErrBufferTooLarge is returned by SubmitBuffer when the sample slice holds
// fewer samples than the (clipped) requested count needs.
var ErrBufferTooLarge = errors.New("audio: sample slice shorter than the requested count")

// musicBuffer is one slot of the music ring: a block of interleaved
// samples at a fixed rate and channel count, with a playback cursor
// tracking how much of it has been consumed by get_mixed/get_music.
type musicBuffer struct {
	samples []int16
	count   int // sample frames (not individual int16s)
	stereo  bool
	rate    int
	pos     int // playback cursor, in sample frames
}

func (b *musicBuffer) remaining() int { return b.count - b.pos }

// AVSink receives a copy of every submitted music buffer, the whole
// buffer in one call, for recording sideband paths (AVI audio track, WAV
// dump).
type AVSink interface {
	WriteAudio(samples []int16, stereo bool)
}

// musicRing is the SPSC ring of music buffers. put is moved only by the
// producer (SubmitBuffer), get only by the consumer (GetMixed/GetMusic).
type musicRing struct {
	buf [musicRingSize]musicBuffer
	put int
	get int
	sink AVSink
}

func newMusicRing() *musicRing {
	return &musicRing{}
}

// SubmitBuffer accepts count sample frames (int16, interleaved if stereo)
// at rate, clips to capacity, forwards a copy of the clipped buffer to the
// AV sink in a single call, and advances the write cursor modulo the ring
// size.
func (r *musicRing) SubmitBuffer(samples []int16, count int, stereo bool, rate int) error {
	channels := 1
	if stereo {
		channels = 2
	}
	maxCount := musicBufSize / channels
	if count > maxCount {
		count = maxCount
	}
	if count*channels > len(samples) {
		return ErrBufferTooLarge
	}

	if r.sink != nil {
		r.sink.WriteAudio(samples[:count*channels], stereo)
	}

	slot := &r.buf[r.put%musicRingSize]
	if cap(slot.samples) < count*channels {
		slot.samples = make([]int16, count*channels)
	}
	slot.samples = slot.samples[:count*channels]
	copy(slot.samples, samples[:count*channels])
	slot.count = count
	slot.stereo = stereo
	slot.rate = rate
	slot.pos = 0

	r.put++
	return nil
}

// current returns the buffer currently being drained, or nil if the ring
// is empty (consumer has caught up to the producer).
func (r *musicRing) current() *musicBuffer {
	if r.get >= r.put {
		return nil
	}
	return &r.buf[r.get%musicRingSize]
}

// advance retires the current buffer and moves the read cursor forward.
// overrun reports whether the slot about to be read next would be
// overwritten by the producer before being consumed (producer outran
// consumer by a full ring).
func (r *musicRing) advance() (overrun bool) {
	r.get++
	return r.put-r.get >= musicRingSize
}

// dry reports whether the ring has nothing left to consume.
func (r *musicRing) dry() bool { return r.get >= r.put }
