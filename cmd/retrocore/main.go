package main

import (
	"os"
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/user-none/retrocore/cmd/retrocore/cmd"
)

func main() {
	defer func() {
		if err := recover(); err != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			log.Error().Str("stack", string(buf)).Any("error", err).Msg("panic recover")
		}
	}()
	os.Exit(cmd.Execute())
}
