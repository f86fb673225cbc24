package audio

// maxVoiceAdjust bounds how far the play rate may rubber-band away from
// its original value while chasing producer/consumer drift, in Hz.
const maxVoiceAdjust = 200

// Mixer owns the music ring, the two voice SPSC rings, and the VU meters,
// and implements the main get_mixed path plus the clock-drift correction
// hook a real audio driver callback would invoke once it knows how many
// samples actually reached hardware.
type Mixer struct {
	music *musicRing

	voiceP *voiceRing // playback (speaker) samples headed to the driver
	voiceR *voiceRing // record (microphone) samples captured from the driver
	voicePVolume float32

	playRate     int
	recRate      int
	origPlayRate int
	dummyPlay    bool
	dummyRec     bool
	lastAdjust   bool

	left, right *vuMeter
}

// NewMixer builds a Mixer whose voice playback defaults to unity volume
// and whose play/record rates start in dummy mode (no driver bound).
func NewMixer() *Mixer {
	return &Mixer{
		music:        newMusicRing(),
		voiceP:       newVoiceRing(voicePBufSize),
		voiceR:       newVoiceRing(voicerBufSize),
		voicePVolume: 1.0,
		dummyPlay:    true,
		dummyRec:     true,
		left:         newVUMeter(48000),
		right:        newVUMeter(48000),
	}
}

// SetSink installs the AV recording sideband that receives a copy of
// every submitted music buffer.
func (m *Mixer) SetSink(sink AVSink) { m.music.sink = sink }

// SetVoiceVolume scales voice playback samples before they are mixed
// into the output stream.
func (m *Mixer) SetVoiceVolume(v float32) { m.voicePVolume = v }

// SetVUDisabled freezes both VU meters in place.
func (m *Mixer) SetVUDisabled(v bool) {
	m.left.SetDisabled(v)
	m.right.SetDisabled(v)
}

// VULevels returns the most recently integrated left/right levels in dB.
func (m *Mixer) VULevels() (left, right float64) {
	return m.left.DB(), m.right.DB()
}

// SubmitBuffer is the music producer entry point: see musicRing.SubmitBuffer.
func (m *Mixer) SubmitBuffer(samples []int16, count int, stereo bool, rate int) error {
	return m.music.SubmitBuffer(samples, count, stereo, rate)
}

// VoiceRate sets the record and playback sample rates a driver is running
// at. A zero value means "no driver bound" for that direction, which
// raises the corresponding dummy flag; a nonzero value replacing a zero
// clears it.
func (m *Mixer) VoiceRate(rec, play int) {
	m.dummyRec = rec == 0
	m.dummyPlay = play == 0
	if rec != 0 {
		m.recRate = rec
	}
	if play != 0 {
		if m.origPlayRate == 0 {
			m.origPlayRate = play
		}
		m.playRate = play
		m.left.setRate(play)
		m.right.setRate(play)
	}
}

// PutVoice pushes samples (or, if samples is nil, n samples of silence)
// into the record ring, mimicking a driver callback delivering captured
// audio. Samples that do not fit because the consumer has fallen behind
// are dropped.
func (m *Mixer) PutVoice(samples []float32, n int) {
	for i := 0; i < n; i++ {
		v := float32(0)
		if samples != nil && i < len(samples) {
			v = samples[i]
		}
		m.voiceR.push(v)
	}
}

// musicFrame decodes one frame of the current music buffer into left and
// right samples, duplicating the mono channel to both outputs when the
// buffer is not stereo.
func musicFrame(buf *musicBuffer, frame int) (l, r float32) {
	if buf.stereo {
		l = float32(buf.samples[frame*2])
		r = float32(buf.samples[frame*2+1])
		return
	}
	v := float32(buf.samples[frame])
	return v, v
}

// GetMixed is the main mix path: it resamples the current music buffer
// from its native rate to the mixer's play rate using cubic Hermite
// interpolation, mixes in voice playback scaled by the voice volume,
// clamps to int16 range, and writes count sample frames into out
// (interleaved stereo if stereo is true, mono otherwise).
func (m *Mixer) GetMixed(out []int16, count int, stereo bool) {
	cur := m.music.current()

	var srcL, srcR []float32
	srcRate := m.playRate
	if cur != nil && cur.remaining() > 0 {
		srcRate = cur.rate
		n := cur.remaining()
		srcL = make([]float32, n)
		srcR = make([]float32, n)
		for i := 0; i < n; i++ {
			l, r := musicFrame(cur, cur.pos+i)
			srcL[i] = l
			srcR[i] = r
		}
	}

	dstRate := m.playRate
	if dstRate == 0 {
		dstRate = srcRate
	}
	if dstRate == 0 {
		dstRate = 48000
	}

	outL := make([]float32, count)
	outR := make([]float32, count)
	if len(srcL) > 0 {
		var rl, rr resampler
		rl.Resample(outL, count, srcL, srcRate, dstRate)
		rr.Resample(outR, count, srcR, srcRate, dstRate)
	}

	for i := 0; i < count; i++ {
		v, _ := m.voiceP.pop()
		vv := v * m.voicePVolume
		l := clampInt16(outL[i] + vv)
		r := clampInt16(outR[i] + vv)
		m.left.Feed(l)
		m.right.Feed(r)
		if stereo {
			out[i*2] = l
			out[i*2+1] = r
		} else {
			out[i] = clampInt16((float32(l) + float32(r)) / 2)
		}
	}
}

// GetMusic acknowledges played sample frames from the current music
// buffer and applies clock-drift correction: if the producer is
// outrunning the consumer (the slot the next buffer would occupy is
// still unread) the play rate is nudged down by 1 Hz to slow consumption;
// if the consumer drains the ring dry, it is nudged up. Both directions
// are clamped to origPlayRate ± maxVoiceAdjust, rubber-banding the
// effective rate to keep producer and consumer in phase without an
// audible pitch shift.
func (m *Mixer) GetMusic(played int) {
	cur := m.music.current()
	if cur == nil {
		m.adjustUp()
		return
	}
	cur.pos += played
	if cur.pos < cur.count {
		return
	}

	overrun := m.music.advance()
	if overrun {
		m.adjustDown()
		m.lastAdjust = true
	} else {
		m.lastAdjust = false
	}

	if m.music.dry() {
		m.adjustUp()
	}
}

func (m *Mixer) adjustDown() {
	if m.origPlayRate == 0 {
		return
	}
	floor := m.origPlayRate - maxVoiceAdjust
	if m.playRate > floor {
		m.playRate--
	}
}

func (m *Mixer) adjustUp() {
	if m.origPlayRate == 0 {
		return
	}
	ceil := m.origPlayRate + maxVoiceAdjust
	if m.playRate < ceil {
		m.playRate++
	}
}
