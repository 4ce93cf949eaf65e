package logging

import (
	"io"
	"strings"

	clay "github.com/go-go-golems/clay/pkg"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger from the --log-* flags of the glazed
// logging layer that clay.InitViper put on the root command.
func Init() error {
	return clay.InitLogger()
}

// QuietUnlessFile drops log output when no log file is configured. The
// full-screen panel owns the terminal, so stderr is not an option there.
// It reports whether output was dropped.
func QuietUnlessFile(logFile string) bool {
	if strings.TrimSpace(logFile) != "" {
		return false
	}
	log.Logger = log.Logger.Output(io.Discard)
	return true
}
