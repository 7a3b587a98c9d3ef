package cli

import (
	"context"
	"io"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tilt-dev/dockerci/internal/extensions"
	"github.com/tilt-dev/dockerci/internal/localexec"
	"github.com/tilt-dev/dockerci/internal/runner"
	"github.com/tilt-dev/dockerci/pkg/logger"
)

type runCmd struct {
	flags       buildFlags
	all         bool
	parallelism int

	// Overridden in tests.
	execer   localexec.Execer
	clock    clockwork.Clock
	registry *extensions.Registry
}

func (c *runCmd) register() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a build",
		Long: `
Starts the build's services, runs the build container and tears the services
down again, whether or not the build succeeded.

A parallelized build needs either --combination to pick one combination or
--all to run every combination.
`,
		Args: cobra.NoArgs,
	}

	addBuildFlags(cmd, &c.flags)
	cmd.Flags().BoolVar(&c.all, "all", false, "Run every combination of the build matrix")
	cmd.Flags().IntVar(&c.parallelism, "parallelism", 1, "How many combinations to run at once with --all")
	return cmd
}

func (c *runCmd) run(ctx context.Context, out io.Writer, args []string) error {
	if c.all && c.flags.combination != "" {
		return errors.New("--all and --combination are mutually exclusive")
	}

	cfg, err := c.flags.configuration()
	if err != nil {
		return err
	}

	registry := c.registry
	if registry == nil {
		registry = extensions.DefaultRegistry()
	}
	plugins, err := cfg.Plugins(registry)
	if err != nil {
		return errors.Wrapf(err, "%s", c.flags.fileName)
	}
	notifiers, err := cfg.Notifiers(registry)
	if err != nil {
		return errors.Wrapf(err, "%s", c.flags.fileName)
	}

	execer := c.execer
	if execer == nil {
		execer = localexec.NewProcessExecer(localexec.DefaultEnv())
	}
	clock := c.clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	r := runner.NewRunner(execer, clock, runner.WithPlugins(plugins), runner.WithNotifiers(notifiers))

	logger.Get(ctx).Debugf("Build %s of %s", cfg.BuildID(), cfg.ImageName())

	if c.all {
		_, err := r.RunMatrix(ctx, cfg, cfg.Combinations(), c.parallelism)
		return err
	}

	combs, err := c.flags.combinations(cfg)
	if err != nil {
		return err
	}
	if len(combs) != 1 {
		return errors.Errorf("build has %d combinations; pick one with --combination or run them all with --all", len(combs))
	}

	job, err := runner.PlanJob(cfg, combs[0])
	if err != nil {
		return err
	}
	_, err = r.Run(ctx, job)
	return err
}
