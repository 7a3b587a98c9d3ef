package testutils

import (
	"context"
	"io"
	"os"

	"github.com/tilt-dev/dockerci/pkg/logger"
)

// CtxForTest returns a context.Context with a debug logger writing to stdout.
func CtxForTest() context.Context {
	l := logger.NewLogger(logger.DebugLvl, os.Stdout)
	return logger.WithLogger(context.Background(), l)
}

// LoggerCtxForTest returns a context whose logger writes only to w, at the
// given level.
func LoggerCtxForTest(w io.Writer, level logger.Level) context.Context {
	return logger.WithLogger(context.Background(), logger.NewLogger(level, w))
}
