package logger

import (
	"context"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Logger with controls for levels and colors.
//
// Loggers serve both as traditional loggers (each Infof call is a discrete
// entry) and as Writers (each Write may be part of a larger output stream,
// such as the output of a build container). Discrete messages have a newline
// appended before they reach the underlying writer.
type Logger interface {
	// log information that is likely to only be of interest to dockerci developers
	Debugf(format string, a ...interface{})

	// log information that a user might want when debugging their build config,
	// like every command as it's executed
	Verbosef(format string, a ...interface{})

	// log information that we always want to show
	Infof(format string, a ...interface{})

	Warnf(format string, a ...interface{})

	// Halting errors.
	Errorf(format string, a ...interface{})

	Write(level Level, bytes []byte)

	// gets an io.Writer that filters to the specified level for, e.g., passing to a subprocess
	Writer(level Level) io.Writer

	Level() Level

	SupportsColor() bool

	WithFields(fields Fields) Logger
}

type Level struct {
	name     string
	severity int32
}

func (l Level) String() string {
	return l.name
}

// If l is the logger level, determine if we should display
// logs of the given severity.
func (l Level) ShouldDisplay(log Level) bool {
	return l.severity <= log.severity
}

var (
	NoneLvl    = Level{name: "none", severity: 0}
	DebugLvl   = Level{name: "debug", severity: 100}
	VerboseLvl = Level{name: "verbose", severity: 200}
	InfoLvl    = Level{name: "info", severity: 300}
	WarnLvl    = Level{name: "warn", severity: 400}
	ErrorLvl   = Level{name: "error", severity: 500}
)

type loggerContextKey struct{}

func Get(ctx context.Context) Logger {
	val := ctx.Value(loggerContextKey{})

	if val != nil {
		return val.(Logger)
	}

	// No logger found in context, something is wrong.
	panic("Called logger.Get(ctx) on a context with no logger attached!")
}

func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

func NewLogger(minLevel Level, writer io.Writer) Logger {
	// adapted from fatih/color
	supportsColor := true
	if os.Getenv("TERM") == "dumb" {
		supportsColor = false
	} else {
		file, isFile := writer.(*os.File)
		if isFile {
			fd := file.Fd()
			supportsColor = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		} else {
			supportsColor = false
		}
	}
	return NewFuncLogger(supportsColor, minLevel, func(level Level, fields Fields, bytes []byte) error {
		_, err := writer.Write(bytes)
		return err
	})
}

func getColor(l Logger, c color.Attribute) *color.Color {
	color := color.New(c)
	if !l.SupportsColor() {
		color.DisableColor()
	}
	return color
}

func Blue(l Logger) *color.Color   { return getColor(l, color.FgBlue) }
func Green(l Logger) *color.Color  { return getColor(l, color.FgGreen) }
func Red(l Logger) *color.Color    { return getColor(l, color.FgRed) }

