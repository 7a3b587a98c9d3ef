package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type axesCmd struct {
	flags buildFlags
	yaml  bool
}

func (c *axesCmd) register() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "axes",
		Short: "List the combinations of a build matrix",
		Long: `
Prints one combination per line, in the form --combination accepts, so a CI
system can fan the build out itself.
`,
		Args: cobra.NoArgs,
	}

	addBuildFlags(cmd, &c.flags)
	cmd.Flags().BoolVar(&c.yaml, "yaml", false, "Print the axes and their values as YAML instead")
	return cmd
}

func (c *axesCmd) run(ctx context.Context, out io.Writer, args []string) error {
	cfg, err := c.flags.configuration()
	if err != nil {
		return err
	}

	if c.yaml {
		return writeYAML(out, cfg.AxisList())
	}
	for _, comb := range cfg.Combinations() {
		if _, err := fmt.Fprintln(out, comb); err != nil {
			return err
		}
	}
	return nil
}
