// Package core declares the capability set an embedded emulator core must
// implement for the frontend to drive it: region/rate discovery, SRAM and
// savestate persistence, per-frame emulation, and the input callback the
// movie state machine intercepts (§6.1).
package core

// InputSource is the callback shape an EmulatorCore calls into once per
// polled control. The movie package's Movie satisfies this via NextInput.
type InputSource interface {
	NextInput(port, controller, index int) int16
}

// FrameHandler is invoked by an EmulatorCore once per emulated frame,
// after input has been latched but before the frame's video/audio are
// finalized; installing one lets a dumper or debugger observe every tick.
type FrameHandler func()

// EmulatorCore is the capability set §6.1 requires of any embedded
// emulator: enough to identify it, drive it one frame at a time under
// movie control, and persist its state.
type EmulatorCore interface {
	// Identify returns a short human-readable name for the emulated
	// system/core, e.g. "Sega Master System".
	Identify() string

	// SetRegion selects the console region/timing this core emulates.
	// Returns false if the region is not supported by this core.
	SetRegion(name string) bool

	// VideoRate returns the core's nominal frames-per-second as a
	// rational (num/den), e.g. 60/1 or 60000/1001.
	VideoRate() (num, den int)

	// AudioRate returns the core's nominal output sample rate in Hz.
	AudioRate() int

	// LoadSRAM installs battery-backed save data keyed by a
	// core-defined logical name (e.g. "cart", "rtc").
	LoadSRAM(data map[string][]byte)

	// SaveSRAM returns the current battery-backed save data.
	SaveSRAM() map[string][]byte

	// Serialize produces an opaque savestate blob.
	Serialize() ([]byte, error)

	// Unserialize restores state from a blob produced by Serialize.
	Unserialize(data []byte) error

	// SetInputSource installs the callback used to resolve polled
	// controls; typically a *movie.Movie.
	SetInputSource(src InputSource)

	// SetFrameHandler installs (or, with nil, uninstalls) a per-frame
	// observer.
	SetFrameHandler(h FrameHandler)

	// EmulateFrame runs exactly one emulated frame, calling the
	// installed InputSource for every control a ROM's driver code
	// polls, and returns the frame's rendered pixels (tightly packed,
	// RGBA8) alongside its dimensions, plus any audio samples produced
	// during the frame as interleaved signed 16-bit stereo.
	EmulateFrame() (pixels []byte, width, height int, audio []int16)

	// PollFlag reports (without clearing; SetPollFlag changes it) the
	// core's own "did I consume input
	// this frame" signal, for cores that cannot be fully characterized
	// by NextInput call counts alone. Cores with no such signal should
	// always return true (so real pflag is only ever sourced from
	// actual control polls).
	PollFlag() bool
	SetPollFlag(v bool)
}
