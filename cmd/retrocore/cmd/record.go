package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/user-none/retrocore/movie"
)

type recordArgs struct {
	rom    string
	output string
	frames int
}

var record recordArgs

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Run a ROM for a fixed number of frames, recording a movie of its input.",
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := defaultPortTypes()
		if err != nil {
			return err
		}
		core, name, err := openCore(record.rom)
		if err != nil {
			return err
		}

		m := movie.New(types)
		m.ReadOnlyMode(false)
		core.SetInputSource(m)

		log.Info().Str("rom", name).Int("frames", record.frames).Msg("recording")
		for i := 0; i < record.frames; i++ {
			m.NextFrame()
			core.EmulateFrame()
		}

		f, err := os.Create(record.output)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := movie.WriteFile(f, m); err != nil {
			return err
		}

		log.Info().
			Str("movie", record.output).
			Int("lag_frames", m.LagFrames()).
			Msg("recording complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().StringVarP(&record.rom, "rom", "r", "", "path to the ROM image (archives and .bps sidecars are handled automatically)")
	recordCmd.MarkFlagRequired("rom")
	recordCmd.Flags().StringVarP(&record.output, "output", "o", "movie.rcmv", "path to write the recorded movie")
	recordCmd.Flags().IntVarP(&record.frames, "frames", "f", 600, "number of frames to run before stopping")
}
