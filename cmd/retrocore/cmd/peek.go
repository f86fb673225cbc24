package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/user-none/retrocore/movie"
)

type peekArgs struct {
	rom     string
	movie   string
	address string
	length  int
}

var peek peekArgs

var peekCmd = &cobra.Command{
	Use:   "peek",
	Short: "Replay a movie and dump bytes from the core's flat memory space.",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := strconv.ParseUint(peek.address, 0, 64)
		if err != nil {
			return fmt.Errorf("bad --address %q: %w", peek.address, err)
		}

		types, err := defaultPortTypes()
		if err != nil {
			return err
		}
		core, name, err := openCore(peek.rom)
		if err != nil {
			return err
		}

		var frames int
		var m *movie.Movie
		if peek.movie != "" {
			mf, err := os.Open(peek.movie)
			if err != nil {
				return err
			}
			m, err = movie.ReadFile(mf, types)
			mf.Close()
			if err != nil {
				return err
			}
			core.SetInputSource(m)
			frames = countFrames(m)
		}

		log.Info().Str("rom", name).Int("frames", frames).Msg("running before peek")
		for i := 0; i < frames; i++ {
			m.NextFrame()
			core.EmulateFrame()
		}

		space := core.MemorySpace()
		buf := make([]byte, peek.length)
		space.Read(addr, buf)

		for i, b := range buf {
			fmt.Printf("%08x: %02x\n", addr+uint64(i), b)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(peekCmd)

	peekCmd.Flags().StringVarP(&peek.rom, "rom", "r", "", "path to the ROM image")
	peekCmd.MarkFlagRequired("rom")
	peekCmd.Flags().StringVarP(&peek.movie, "movie", "m", "", "optional movie to replay before peeking")
	peekCmd.Flags().StringVarP(&peek.address, "address", "a", "0x0", "flat address to read from (decimal or 0x-prefixed hex)")
	peekCmd.Flags().IntVarP(&peek.length, "length", "n", 16, "number of bytes to dump")
}
