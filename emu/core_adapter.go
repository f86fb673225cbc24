package emu

import (
	"github.com/user-none/retrocore/core"
	"github.com/user-none/retrocore/memspace"
)

// Core wraps EmulatorBase to satisfy core.EmulatorCore, latching polled
// input through an installed core.InputSource instead of direct Input
// struct pokes, and exposing the ROM header's detected region at
// construction time.
type Core struct {
	EmulatorBase
	rom []byte

	input   core.InputSource
	onFrame core.FrameHandler
	polled  bool
}

// NewCore builds a Core for rom, auto-detecting its region from the known
// ROM database (falling back to DefaultRegion when unrecognized).
func NewCore(rom []byte) *Core {
	region := DefaultRegion()
	if r, ok := DetectRegionFromROM(rom); ok {
		region = r
	}
	return &Core{
		EmulatorBase: initEmulatorBase(rom, region),
		rom:          rom,
		polled:       true,
	}
}

func (c *Core) Identify() string { return "Sega Master System" }

func (c *Core) SetRegion(name string) bool {
	switch name {
	case "NTSC":
		c.EmulatorBase.SetRegion(RegionNTSC)
	case "PAL":
		c.EmulatorBase.SetRegion(RegionPAL)
	default:
		return false
	}
	return true
}

func (c *Core) VideoRate() (num, den int) {
	return c.GetTiming().FPS, 1
}

func (c *Core) AudioRate() int { return sampleRate }

// sramKey is the only logical SRAM slot this core exposes: the 32KB
// cartridge RAM window used for battery-backed saves.
const sramKey = "cart"

func (c *Core) LoadSRAM(data map[string][]byte) {
	blob, ok := data[sramKey]
	if !ok {
		return
	}
	ram := c.mem.GetCartRAM()
	n := copy(ram[:], blob)
	for i := n; i < len(ram); i++ {
		ram[i] = 0
	}
}

func (c *Core) SaveSRAM() map[string][]byte {
	ram := c.mem.GetCartRAM()
	out := make([]byte, len(ram))
	copy(out, ram[:])
	return map[string][]byte{sramKey: out}
}

func (c *Core) Serialize() ([]byte, error) {
	return c.EmulatorBase.Serialize()
}

func (c *Core) Unserialize(data []byte) error {
	return c.EmulatorBase.Deserialize(data)
}

func (c *Core) SetInputSource(src core.InputSource) { c.input = src }

func (c *Core) SetFrameHandler(h core.FrameHandler) { c.onFrame = h }

func (c *Core) PollFlag() bool { return c.polled }

func (c *Core) SetPollFlag(v bool) { c.polled = v }

// padControl indices, matching controller.EightButtonLayout's bit order
// (A, B, Select, Start, Up, Down, Left, Right). The SMS pad physically
// wires only d-pad and two buttons; Select has no SMS equivalent and is
// ignored, Start triggers the console's NMI-driven pause line.
const (
	padA = iota
	padB
	padSelect
	padStart
	padUp
	padDown
	padLeft
	padRight
)

// latchInput polls every control of both pad ports through the installed
// InputSource and writes the result into the SMS I/O latch, mirroring what
// a real pad does once per frame before the CPU reads port $DC/$DD.
func (c *Core) latchInput() {
	if c.input == nil {
		return
	}
	poll := func(port int) (up, down, left, right, b1, b2, start bool) {
		return c.input.NextInput(port, 0, padUp) != 0,
			c.input.NextInput(port, 0, padDown) != 0,
			c.input.NextInput(port, 0, padLeft) != 0,
			c.input.NextInput(port, 0, padRight) != 0,
			c.input.NextInput(port, 0, padA) != 0,
			c.input.NextInput(port, 0, padB) != 0,
			c.input.NextInput(port, 0, padStart) != 0
	}

	up, down, left, right, b1, b2, start := poll(0)
	c.SetInput(up, down, left, right, b1, b2)
	if start {
		c.SetPause()
	}

	up, down, left, right, b1, b2, _ = poll(1)
	c.SetInputP2(up, down, left, right, b1, b2)
}

// EmulateFrame latches input, runs one frame, and returns its rendered
// pixels (tightly packed RGBA8) alongside any audio produced.
func (c *Core) EmulateFrame() (pixels []byte, width, height int, audio []int16) {
	c.latchInput()
	if c.onFrame != nil {
		c.onFrame()
	}
	c.RunFrame()

	height = c.GetActiveHeight()
	width = ScreenWidth
	stride := c.GetFramebufferStride()
	fb := c.GetFramebuffer()
	if stride == width*4 {
		pixels = fb[:width*4*height]
	} else {
		pixels = make([]byte, width*4*height)
		for y := 0; y < height; y++ {
			copy(pixels[y*width*4:(y+1)*width*4], fb[y*stride:y*stride+width*4])
		}
	}
	return pixels, width, height, c.GetAudioSamples()
}

// MemorySpace assembles this core's addressable regions (cartridge ROM,
// system RAM, and cart RAM) into a flat memspace.Space for debuggers and
// memory-watch tooling (§4.6, §6.4), laid out back to back from flat
// address 0 in that order (not at their Z80 bus addresses).
func (c *Core) MemorySpace() *memspace.Space {
	sp := memspace.New()
	sp.AddRegion(&memspace.Region{
		Name:    "rom",
		Base:    0,
		Backing: &memspace.SliceBacking{Data: c.rom, ReadOnly: true},
	})
	ram := c.mem.GetSystemRAM()
	sp.AddRegion(&memspace.Region{
		Name:    "ram",
		Base:    uint64(len(c.rom)),
		Backing: &memspace.SliceBacking{Data: ram[:]},
	})
	cartRAM := c.mem.GetCartRAM()
	sp.AddRegion(&memspace.Region{
		Name:    "cartram",
		Base:    uint64(len(c.rom)) + uint64(len(ram)),
		Backing: &memspace.SliceBacking{Data: cartRAM[:]},
	})
	return sp
}

var _ core.EmulatorCore = (*Core)(nil)
