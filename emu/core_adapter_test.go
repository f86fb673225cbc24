package emu

import (
	"bytes"
	"testing"
)

// constInput is a core.InputSource stub that reports a fixed button state
// for every control, useful for exercising Core.EmulateFrame's input latch.
type constInput struct {
	pressed map[int]bool // control index -> pressed
}

func (c *constInput) NextInput(port, controller, index int) int16 {
	if c.pressed[index] {
		return 1
	}
	return 0
}

func TestCore_IdentifyAndRates(t *testing.T) {
	c := NewCore(createTestROM(2))

	if c.Identify() != "Sega Master System" {
		t.Errorf("Identify() = %q", c.Identify())
	}
	num, den := c.VideoRate()
	if num != 60 || den != 1 {
		t.Errorf("VideoRate() = %d/%d, want 60/1", num, den)
	}
	if c.AudioRate() != sampleRate {
		t.Errorf("AudioRate() = %d, want %d", c.AudioRate(), sampleRate)
	}
}

func TestCore_SetRegionSwitchesTiming(t *testing.T) {
	c := NewCore(createTestROM(2))

	if !c.SetRegion("PAL") {
		t.Fatal("SetRegion(PAL) = false")
	}
	num, _ := c.VideoRate()
	if num != 50 {
		t.Errorf("after SetRegion(PAL), VideoRate num = %d, want 50", num)
	}
	if c.SetRegion("NotARegion") {
		t.Error("SetRegion with unknown name should return false")
	}
}

func TestCore_EmulateFrameLatchesInput(t *testing.T) {
	c := NewCore(createTestROM(2))
	src := &constInput{pressed: map[int]bool{padUp: true, padA: true}}
	c.SetInputSource(src)

	pixels, width, height, _ := c.EmulateFrame()

	if width != ScreenWidth {
		t.Errorf("width = %d, want %d", width, ScreenWidth)
	}
	if height != c.GetActiveHeight() {
		t.Errorf("height = %d, want %d", height, c.GetActiveHeight())
	}
	if len(pixels) != width*4*height {
		t.Errorf("pixels len = %d, want %d", len(pixels), width*4*height)
	}
	// Up and A pressed (active low) should clear bits 0 and 4 of Port1.
	if c.io.Input.Port1&0x01 != 0 {
		t.Error("Up not latched into Port1 bit 0")
	}
	if c.io.Input.Port1&0x10 != 0 {
		t.Error("A (button1) not latched into Port1 bit 4")
	}
}

func TestCore_EmulateFrameWithoutInputSourceDoesNotPanic(t *testing.T) {
	c := NewCore(createTestROM(2))
	c.EmulateFrame()
}

func TestCore_FrameHandlerInvokedOncePerFrame(t *testing.T) {
	c := NewCore(createTestROM(2))
	calls := 0
	c.SetFrameHandler(func() { calls++ })

	c.EmulateFrame()
	c.EmulateFrame()

	if calls != 2 {
		t.Errorf("frame handler called %d times, want 2", calls)
	}
}

func TestCore_SRAMRoundTrip(t *testing.T) {
	c := NewCore(createTestROM(2))
	blob := bytes.Repeat([]byte{0xAB}, 100)
	c.LoadSRAM(map[string][]byte{"cart": blob})

	saved := c.SaveSRAM()
	got, ok := saved["cart"]
	if !ok {
		t.Fatal("SaveSRAM missing \"cart\" key")
	}
	if !bytes.Equal(got[:len(blob)], blob) {
		t.Errorf("SRAM round trip mismatch: got %v, want prefix %v", got[:len(blob)], blob)
	}
	for _, b := range got[len(blob):] {
		if b != 0 {
			t.Fatal("SaveSRAM bytes beyond loaded blob should be zeroed")
		}
	}
}

func TestCore_SerializeUnserializeRoundTrip(t *testing.T) {
	c := NewCore(createTestROM(2))
	c.EmulateFrame()

	blob, err := c.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	c2 := NewCore(createTestROM(2))
	if err := c2.Unserialize(blob); err != nil {
		t.Fatalf("Unserialize: %v", err)
	}

	blob2, err := c2.Serialize()
	if err != nil {
		t.Fatalf("Serialize (restored): %v", err)
	}
	if !bytes.Equal(blob, blob2) {
		t.Error("restored core did not reproduce the same savestate bytes")
	}
}

func TestCore_MemorySpaceReadsROMAndRAM(t *testing.T) {
	rom := createTestROM(2)
	c := NewCore(rom)

	ram := c.mem.GetSystemRAM()
	ram[5] = 0x42

	sp := c.MemorySpace()
	if got := sp.ReadByte(0); got != rom[0] {
		t.Errorf("ReadByte(0) = %#x, want %#x (first ROM byte)", got, rom[0])
	}
	if got := sp.ReadByte(uint64(len(rom)) + 5); got != 0x42 {
		t.Errorf("RAM byte at offset 5 = %#x, want 0x42", got)
	}
	if sp.TotalSize() != uint64(len(rom))+0x2000+0x8000 {
		t.Errorf("TotalSize() = %d, want %d", sp.TotalSize(), uint64(len(rom))+0x2000+0x8000)
	}
}

func TestCore_PollFlagDefaultsTrue(t *testing.T) {
	c := NewCore(createTestROM(2))
	if !c.PollFlag() {
		t.Error("PollFlag() should default to true")
	}
	c.SetPollFlag(false)
	if c.PollFlag() {
		t.Error("SetPollFlag(false) did not stick")
	}
}
