package cli

import (
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tilt-dev/dockerci/internal/build"
	"github.com/tilt-dev/dockerci/internal/ciconfig"
	"github.com/tilt-dev/dockerci/internal/docker"
	"github.com/tilt-dev/dockerci/pkg/model"
)

const DefaultFileName = ".ci.yml"

// Overrides the docker binary every command is rendered for.
const DockerBinaryEnv = "DOCKERCI_DOCKER"

// Common flags used across multiple commands.
type buildFlags struct {
	fileName    string
	buildID     string
	checkout    []string
	combination string
	workspace   string
	workdir     string
}

func addBuildFlags(cmd *cobra.Command, f *buildFlags) {
	cmd.Flags().StringVarP(&f.fileName, "file", "f", DefaultFileName, "Path to the build configuration")
	cmd.Flags().StringVar(&f.buildID, "build-id", "", "Build id used in container names. Defaults to a random id")
	cmd.Flags().StringArrayVar(&f.checkout, "checkout", nil, "Shell command that checks out the project, run before the build commands. Repeatable")
	cmd.Flags().StringVarP(&f.combination, "combination", "c", "", "Combination to build, e.g. command=test")
	cmd.Flags().StringVar(&f.workspace, "workspace", "", "Host directory mounted into the build container. Defaults to the current directory")
	cmd.Flags().StringVar(&f.workdir, "workdir", build.DefaultWorkdir, "Where the workspace is mounted in the build container")
}

// newBuildID is a short random id, enough to keep concurrent builds on one
// docker host apart.
func newBuildID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

func (f *buildFlags) checkoutCommands() (model.ShellCommands, error) {
	for _, c := range f.checkout {
		if _, err := shellquote.Split(c); err != nil {
			return model.ShellCommands{}, errors.Wrapf(err, "--checkout %q", c)
		}
	}
	return model.NewShellCommands(f.checkout...), nil
}

func (f *buildFlags) configuration() (*build.Configuration, error) {
	doc, err := ciconfig.ReadFile(f.fileName)
	if err != nil {
		return nil, err
	}

	checkout, err := f.checkoutCommands()
	if err != nil {
		return nil, err
	}

	buildID := f.buildID
	if buildID == "" {
		buildID = newBuildID()
	}

	cfg, err := build.NewConfiguration(doc, buildID, checkout,
		build.WithDockerCLI(docker.NewCLI(os.Getenv(DockerBinaryEnv))),
		build.WithWorkspace(f.workspace),
		build.WithWorkdir(f.workdir))
	if err != nil {
		return nil, errors.Wrapf(err, "%s", f.fileName)
	}
	return cfg, nil
}

// combinations is the --combination flag, or every combination of the
// build when it's unset.
func (f *buildFlags) combinations(cfg *build.Configuration) ([]model.Combination, error) {
	if f.combination == "" {
		return cfg.Combinations(), nil
	}
	comb, err := parseCombinationFlag(f.combination)
	if err != nil {
		return nil, err
	}
	return []model.Combination{comb}, nil
}

// A bare value is shorthand for the command axis: `-c test`.
func parseCombinationFlag(s string) (model.Combination, error) {
	if !strings.Contains(s, "=") {
		return model.NewCommandCombination(strings.TrimSpace(s)), nil
	}
	comb, err := model.ParseCombination(s)
	if err != nil {
		return nil, errors.Wrap(err, "--combination")
	}
	return comb, nil
}
