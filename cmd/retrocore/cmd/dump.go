package cmd

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/user-none/retrocore/audio"
	"github.com/user-none/retrocore/movie"
	"github.com/user-none/retrocore/video"
)

type dumpArgs struct {
	rom    string
	movie  string
	aviOut string
	wavOut string
	keyint int
	zlib   int
}

var dump dumpArgs

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Replay a movie, dumping its video to a TSCC packet stream and its audio to WAV.",
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := defaultPortTypes()
		if err != nil {
			return err
		}
		core, name, err := openCore(dump.rom)
		if err != nil {
			return err
		}

		mf, err := os.Open(dump.movie)
		if err != nil {
			return err
		}
		m, err := movie.ReadFile(mf, types)
		mf.Close()
		if err != nil {
			return err
		}
		core.SetInputSource(m)

		var wavDumper *audio.WAVDumper
		mixer := audio.NewMixer()
		if dump.wavOut != "" {
			wf, err := os.Create(dump.wavOut)
			if err != nil {
				return err
			}
			defer wf.Close()
			wavDumper = audio.NewWAVDumper(wf, core.AudioRate(), true)
			defer wavDumper.Close()
			mixer.SetSink(wavDumper)
		}

		frames := countFrames(m)
		log.Info().Str("rom", name).Str("movie", dump.movie).Int("frames", frames).Msg("dumping")

		var enc *video.Encoder
		var streamFile *os.File
		if dump.aviOut != "" {
			streamFile, err = os.Create(dump.aviOut)
			if err != nil {
				return err
			}
			defer streamFile.Close()
		}

		for i := 0; i < frames; i++ {
			m.NextFrame()
			pixels, w, h, samples := core.EmulateFrame()

			if dump.wavOut != "" && len(samples) > 0 {
				mixer.SubmitBuffer(samples, len(samples)/2, true, core.AudioRate())
			}

			if dump.aviOut != "" {
				if enc == nil {
					enc, err = video.NewEncoder(w, h, dump.keyint, dump.zlib)
					if err != nil {
						return err
					}
					defer enc.Close()
				}
				packet, err := enc.EncodeFrame(pixels)
				if err != nil {
					return err
				}
				if err := writePacket(streamFile, packet); err != nil {
					return err
				}
			}
		}

		log.Info().Int("lag_frames", m.LagFrames()).Msg("dump complete")
		return nil
	},
}

// writePacket appends one video.Packet to a simple length-prefixed stream:
// type code (2), index flags (1), payload length (4), payload. This is the
// packet stream §6.5 actually specifies; muxing it into a full AVI RIFF
// container is a presentation concern layered on top, left to whatever
// consumes this file.
func writePacket(w io.Writer, p video.Packet) error {
	var hdr [7]byte
	binary.BigEndian.PutUint16(hdr[0:2], p.TypeCode)
	hdr[2] = p.IndexFlags
	binary.BigEndian.PutUint32(hdr[3:7], uint32(len(p.Payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(p.Payload)
	return err
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().StringVarP(&dump.rom, "rom", "r", "", "path to the ROM image")
	dumpCmd.MarkFlagRequired("rom")
	dumpCmd.Flags().StringVarP(&dump.movie, "movie", "m", "", "path to the recorded movie to replay")
	dumpCmd.MarkFlagRequired("movie")
	dumpCmd.Flags().StringVar(&dump.aviOut, "avi-out", "", "write the TSCC/MSRLE packet stream to this path")
	dumpCmd.Flags().StringVar(&dump.wavOut, "wav-out", "", "write mixed audio to this WAV path")
	dumpCmd.Flags().IntVar(&dump.keyint, "keyint", 60, "frames between forced video keyframes")
	dumpCmd.Flags().IntVar(&dump.zlib, "zlib-level", 0, "zlib compression level for the video stream (0 = default)")
}
