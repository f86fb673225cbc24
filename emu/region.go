package emu

import "hash/crc32"

// Region represents the console region (NTSC or PAL)
type Region int

const (
	RegionNTSC Region = iota
	RegionPAL
)

func (r Region) String() string {
	switch r {
	case RegionNTSC:
		return "NTSC"
	case RegionPAL:
		return "PAL"
	default:
		return "Unknown"
	}
}

// RegionTiming holds timing constants for a specific region
type RegionTiming struct {
	CPUClockHz int // Z80 clock frequency
	Scanlines  int // Total scanlines per frame
	FPS        int // Frames per second
}

// NTSC timing: 3.579545 MHz, 262 scanlines, 60 Hz
var NTSCTiming = RegionTiming{
	CPUClockHz: 3579545,
	Scanlines:  262,
	FPS:        60,
}

// PAL timing: 3.546893 MHz, 313 scanlines, 50 Hz
var PALTiming = RegionTiming{
	CPUClockHz: 3546893,
	Scanlines:  313,
	FPS:        50,
}

// GetTimingForRegion returns the appropriate timing constants
func GetTimingForRegion(r Region) RegionTiming {
	if r == RegionPAL {
		return PALTiming
	}
	return NTSCTiming
}

// DefaultRegion returns the default region (NTSC).
// SMS ROM headers don't distinguish PAL from NTSC for export regions;
// PAL is selected through SetRegion.
func DefaultRegion() Region {
	return RegionNTSC
}

// DetectRegionFromROM returns the region for a ROM based on CRC32 lookup.
// Returns (detected region, true) if found in database, (NTSC, false) if not found.
func DetectRegionFromROM(rom []byte) (Region, bool) {
	crc := crc32.ChecksumIEEE(rom)
	if info, ok := romDatabase[crc]; ok {
		return info.Region, true
	}
	return RegionNTSC, false
}

// Nationality distinguishes the console variant a ROM targets, which flips
// the TH-line polarity bits 6-7 of I/O port $DD read back to the program.
type Nationality int

const (
	NationalityExport Nationality = iota
	NationalityJapanese
)

func (n Nationality) String() string {
	if n == NationalityJapanese {
		return "Japanese"
	}
	return "Export"
}

// romHeaderOffset is where the "TMR SEGA" signature lives in a raw cartridge
// image; romRegionCodeOffset holds the region/size nibble pair.
const (
	romHeaderOffset     = 0x7FF0
	romRegionCodeOffset = 0x7FFF
)

// DetectNationalityFromROM inspects the cartridge header's region code
// nibble (upper nibble of the byte at $7FFF) for the "TMR SEGA" signature.
// Region code 3 is Japan; everything else, or a missing/undersized header,
// defaults to Export.
func DetectNationalityFromROM(rom []byte) Nationality {
	if len(rom) <= romRegionCodeOffset {
		return NationalityExport
	}
	if string(rom[romHeaderOffset:romHeaderOffset+8]) != "TMR SEGA" {
		return NationalityExport
	}
	if rom[romRegionCodeOffset]>>4 == 0x3 {
		return NationalityJapanese
	}
	return NationalityExport
}
