package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Values accepted by LOG_FORMAT.
const (
	FormatJSON   = "json"
	FormatPretty = "pretty"
	// FormatAuto is pretty on an interactive terminal and JSON otherwise.
	FormatAuto = "auto"
)

// Setup builds the process logger on stdout and sets the global level.
func Setup(level, format string) zerolog.Logger {
	return New(os.Stdout, level, format)
}

// New builds a logger writing to w. Unknown levels fall back to info with a
// warning. Caller locations are only attached at debug and below.
func New(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	ctx := zerolog.New(output(w, format)).With().Timestamp()
	if lvl <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	log := ctx.Logger()

	if err != nil {
		log.Warn().Str("log_level", level).Msg("Unknown log level, using info")
	}
	return log
}

func output(w io.Writer, format string) io.Writer {
	pretty := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	switch strings.ToLower(format) {
	case FormatPretty:
		return pretty
	case FormatAuto:
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return pretty
		}
	}
	return w
}
