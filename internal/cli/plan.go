package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tilt-dev/dockerci/internal/runner"
	"github.com/tilt-dev/dockerci/pkg/model"
)

const (
	outputYAML  = "yaml"
	outputShell = "shell"
)

type planCmd struct {
	flags  buildFlags
	output string
}

func (c *planCmd) register() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the docker commands a build would run",
		Long: `
Prints, for each combination of the build (or the one given with
--combination), the commands that start its services, the build container
run, and the commands that tear the services down.

With --output=shell, each plan is printed as a self-contained script that
tears its services down on exit.
`,
		Args: cobra.NoArgs,
	}

	addBuildFlags(cmd, &c.flags)
	cmd.Flags().StringVarP(&c.output, "output", "o", outputYAML, "Output format: yaml or shell")
	return cmd
}

func (c *planCmd) run(ctx context.Context, out io.Writer, args []string) error {
	if c.output != outputYAML && c.output != outputShell {
		return errors.Errorf("--output: expected %s or %s, got %q", outputYAML, outputShell, c.output)
	}

	cfg, err := c.flags.configuration()
	if err != nil {
		return err
	}
	combs, err := c.flags.combinations(cfg)
	if err != nil {
		return err
	}

	plans := make([]model.BuildPlan, 0, len(combs))
	for _, comb := range combs {
		job, err := runner.PlanJob(cfg, comb)
		if err != nil {
			return err
		}
		plans = append(plans, job.Plan)
	}

	if c.output == outputShell {
		return writeShell(out, plans)
	}
	return writeYAML(out, plans)
}

func writeYAML(out io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "encoding yaml")
	}
	return enc.Close()
}

func writeShell(out io.Writer, plans []model.BuildPlan) error {
	for i, p := range plans {
		if i > 0 {
			if _, err := fmt.Fprintln(out); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(out, "# %s\n%s", p.Combination, p.ShellScript()); err != nil {
			return err
		}
	}
	return nil
}
