package audio

import "sync/atomic"

// voicePBufSize and voicerBufSize are the fixed capacities of the voice
// playback and record rings, in sample frames (mono float32).
const (
	voicePBufSize = 4096
	voicerBufSize = 4096
)

// voiceRing is a single-producer/single-consumer ring of float32 samples.
// put is moved only by the producer, get only by the consumer; both use
// relaxed atomic loads so a torn read only ever sees a stale (not
// corrupt) index. On underrun the consumer replays the last sample
// (prev) rather than inserting silence, matching a real DAC's behavior
// when its FIFO runs dry.
type voiceRing struct {
	buf  []float32
	put  atomic.Uint32
	get  atomic.Uint32
	prev float32
}

func newVoiceRing(size int) *voiceRing {
	return &voiceRing{buf: make([]float32, size)}
}

func (r *voiceRing) size() uint32 { return uint32(len(r.buf)) }

// push writes one sample, producer side. Returns false if the ring is
// full (consumer has not kept up); the caller drops the sample.
func (r *voiceRing) push(v float32) bool {
	put := r.put.Load()
	get := r.get.Load()
	if put-get >= r.size() {
		return false
	}
	r.buf[put%r.size()] = v
	r.put.Store(put + 1)
	return true
}

// pop reads one sample, consumer side. On underrun it returns the last
// sample seen (or 0 before any sample has ever been produced) and
// reports underrun=true.
func (r *voiceRing) pop() (v float32, underrun bool) {
	get := r.get.Load()
	put := r.put.Load()
	if get >= put {
		return r.prev, true
	}
	v = r.buf[get%r.size()]
	r.get.Store(get + 1)
	r.prev = v
	return v, false
}

// available reports how many samples the consumer can read without
// underrunning.
func (r *voiceRing) available() uint32 {
	put := r.put.Load()
	get := r.get.Load()
	if put < get {
		return 0
	}
	return put - get
}
