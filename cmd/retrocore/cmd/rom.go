package cmd

import (
	"github.com/user-none/retrocore/controller"
	"github.com/user-none/retrocore/emu"
	"github.com/user-none/retrocore/romloader"
)

// defaultPortTypes is the two-gamepad layout every subcommand assumes when
// it has no other source of truth for a ROM's control layout: neither the
// movie file format (§6.2) nor the ROM header carries one, so record and
// play must agree on it out of band.
func defaultPortTypes() (*controller.PortTypeSet, error) {
	return controller.Make([]controller.PortType{
		controller.NewGamepad(),
		controller.NewGamepad(),
	})
}

// openCore loads romPath (applying any sibling .bps patch) and builds an
// emulator core ready to have an input source and frame handler installed.
func openCore(romPath string) (*emu.Core, string, error) {
	rom, name, err := romloader.LoadROM(romPath)
	if err != nil {
		return nil, "", err
	}
	return emu.NewCore(rom), name, nil
}
