package audio

import (
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavPCMFormat = 1

// WAVDumper is an AVSink that mirrors every submitted music buffer into a
// WAV file, for a debug sideband recording alongside (or instead of) the
// AVI video dump.
type WAVDumper struct {
	enc      *wav.Encoder
	ws       io.WriteSeeker
	channels int
	rate     int
}

// NewWAVDumper opens a WAV encoder against ws for stereo or mono 16-bit
// PCM audio at rate. Close must be called to finalize the header.
func NewWAVDumper(ws io.WriteSeeker, rate int, stereo bool) *WAVDumper {
	channels := 1
	if stereo {
		channels = 2
	}
	return &WAVDumper{
		enc:      wav.NewEncoder(ws, rate, 16, channels, wavPCMFormat),
		ws:       ws,
		channels: channels,
		rate:     rate,
	}
}

// WriteAudio implements AVSink.
func (d *WAVDumper) WriteAudio(samples []int16, stereo bool) {
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: d.channels, SampleRate: d.rate},
		SourceBitDepth: 16,
		Data:           data,
	}
	_ = d.enc.Write(buf)
}

// Close finalizes the WAV header. It must be called exactly once, after
// the last WriteAudio call.
func (d *WAVDumper) Close() error {
	return d.enc.Close()
}

var _ AVSink = (*WAVDumper)(nil)
