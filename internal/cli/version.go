package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type versionCmd struct{}

func (c *versionCmd) register() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Current dockerci version",
		Args:  cobra.NoArgs,
	}
}

func (c *versionCmd) run(ctx context.Context, out io.Writer, args []string) error {
	_, err := fmt.Fprintln(out, buildStamp())
	return err
}
