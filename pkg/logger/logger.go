package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var base = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures the process-wide logger. Development gets a human
// readable console writer with debug enabled, everything else JSON at info.
func Init(environment string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if environment == "development" {
		cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		base = zerolog.New(cw).With().Timestamp().Logger().Level(zerolog.DebugLevel)
		return
	}
	base = zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

// SetOutput redirects logs, mostly for tests.
func SetOutput(w io.Writer) {
	base = base.Output(w)
}

// L exposes the underlying logger for structured fields.
func L() *zerolog.Logger {
	return &base
}

func Info(format string, v ...interface{}) {
	base.Info().Msg(fmt.Sprintf(format, v...))
}

func Error(format string, v ...interface{}) {
	base.Error().Msg(fmt.Sprintf(format, v...))
}

func Debug(format string, v ...interface{}) {
	base.Debug().Msg(fmt.Sprintf(format, v...))
}

func Warn(format string, v ...interface{}) {
	base.Warn().Msg(fmt.Sprintf(format, v...))
}

// Fatal logs and exits the process.
func Fatal(format string, v ...interface{}) {
	base.Fatal().Msg(fmt.Sprintf(format, v...))
}
