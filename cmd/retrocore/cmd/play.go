package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/user-none/retrocore/movie"
	"github.com/user-none/retrocore/pngcodec"
)

type playArgs struct {
	rom        string
	movie      string
	frames     int
	screenshot string
}

var play playArgs

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Replay a recorded movie deterministically against a ROM.",
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := defaultPortTypes()
		if err != nil {
			return err
		}
		core, name, err := openCore(play.rom)
		if err != nil {
			return err
		}

		mf, err := os.Open(play.movie)
		if err != nil {
			return err
		}
		m, err := movie.ReadFile(mf, types)
		mf.Close()
		if err != nil {
			return err
		}
		core.SetInputSource(m)

		frames := play.frames
		if frames <= 0 {
			frames = countFrames(m)
		}

		log.Info().Str("rom", name).Str("movie", play.movie).Int("frames", frames).Msg("replaying")

		var lastPixels []byte
		var lastW, lastH int
		for i := 0; i < frames; i++ {
			m.NextFrame()
			pixels, w, h, _ := core.EmulateFrame()
			lastPixels, lastW, lastH = pixels, w, h
		}

		log.Info().Int("lag_frames", m.LagFrames()).Msg("replay complete")

		if play.screenshot != "" && lastPixels != nil {
			if err := writeScreenshot(play.screenshot, lastPixels, lastW, lastH); err != nil {
				return err
			}
			log.Info().Str("path", play.screenshot).Msg("wrote screenshot")
		}
		return nil
	},
}

// countFrames counts how many NextFrame calls a movie's recorded vector
// represents, by counting sync subframes.
func countFrames(m *movie.Movie) int {
	v := m.Vector()
	n := 0
	for i := 0; i < v.Size(); i++ {
		if v.At(i).Sync() {
			n++
		}
	}
	return n
}

// writeScreenshot encodes a tightly packed RGBA8 framebuffer as a PNG.
func writeScreenshot(path string, pixels []byte, width, height int) error {
	img := &pngcodec.Image{
		Width:     width,
		Height:    height,
		BitDepth:  8,
		ColorType: pngcodec.ColorTrueAlpha,
		Pixels:    make([]uint32, width*height),
	}
	for i := 0; i < width*height; i++ {
		r, g, b, a := pixels[i*4], pixels[i*4+1], pixels[i*4+2], pixels[i*4+3]
		img.Pixels[i] = uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return pngcodec.Encode(f, img, pngcodec.EncodeOptions{})
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVarP(&play.rom, "rom", "r", "", "path to the ROM image")
	playCmd.MarkFlagRequired("rom")
	playCmd.Flags().StringVarP(&play.movie, "movie", "m", "", "path to the recorded movie to replay")
	playCmd.MarkFlagRequired("movie")
	playCmd.Flags().IntVarP(&play.frames, "frames", "f", 0, "frames to replay (0 = the movie's own length)")
	playCmd.Flags().StringVar(&play.screenshot, "screenshot", "", "write the final frame to this PNG path")
}
