package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tilt-dev/dockerci/internal/runner"
	"github.com/tilt-dev/dockerci/pkg/logger"
)

var debug bool
var verbose bool

func logLevel() logger.Level {
	if debug {
		return logger.DebugLvl
	} else if verbose {
		return logger.VerboseLvl
	} else {
		return logger.InfoLvl
	}
}

func Execute() {
	rootCmd := newRootCmd(&planCmd{}, &axesCmd{}, &runCmd{}, &versionCmd{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if runner.IsRunStepFailure(err) {
			_, _ = fmt.Fprintf(os.Stderr, "Build failed: %v\n", err)
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode is the exit code of the failing build step, so a failed build
// exits the way its command did.
func exitCode(err error) int {
	var rsf runner.RunStepFailure
	if errors.As(err, &rsf) && rsf.ExitCode > 0 && rsf.ExitCode < 256 {
		return rsf.ExitCode
	}
	return 1
}

func newRootCmd(children ...dockerciCmd) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dockerci",
		Short: "Run CI builds in docker containers, with linked service containers",
		Long: `
Reads a build configuration (.ci.yml by default), renders the docker
commands that start its services, run the build and tear everything down,
and optionally runs them.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	for _, c := range children {
		addCommand(rootCmd, c)
	}
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	return rootCmd
}

type dockerciCmd interface {
	register() *cobra.Command
	run(ctx context.Context, out io.Writer, args []string) error
}

func addCommand(parent *cobra.Command, child dockerciCmd) {
	cobraChild := child.register()
	cobraChild.RunE = func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := logger.WithLogger(cmd.Context(), newLogger(out))
		return child.run(ctx, out, args)
	}

	parent.AddCommand(cobraChild)
}

func newLogger(out io.Writer) logger.Logger {
	// Concurrent builds share the writer. Files already serialize writes,
	// and NewLogger needs the file itself to detect a terminal.
	if _, ok := out.(*os.File); !ok {
		out = logger.NewMutexWriter(out)
	}
	return logger.NewLogger(logLevel(), out)
}
