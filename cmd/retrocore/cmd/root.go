// Package cmd implements the retrocore headless command line: record a
// fresh movie, replay an existing one, or dump a movie's run to AVI/WAV
// sidebands, all without any windowing or platform GUI layer.
package cmd

import (
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "retrocore",
	Short: "Headless deterministic-recording emulator frontend core.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger(logLevel, logJSON)
	},
	SilenceUsage: true,
}

var (
	logLevel string
	logJSON  bool
)

// Execute adds all child commands to the root command and runs it. It is
// called once from main.main.
func Execute() int {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON instead of colorized console text")

	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// initLogger wires run-level logging only — never called from the hot
// per-frame emulation path.
func initLogger(level string, asJSON bool) {
	zerolog.TimeFieldFormat = time.RFC3339

	var writer io.Writer = os.Stderr
	if !asJSON {
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339, NoColor: runtime.GOOS == "windows"}
	}
	log.Logger = zerolog.New(writer).With().Timestamp().Logger()

	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
