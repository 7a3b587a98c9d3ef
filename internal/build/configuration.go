package build

import (
	"fmt"
	"strings"

	"github.com/tilt-dev/dockerci/internal/ciconfig"
	"github.com/tilt-dev/dockerci/internal/docker"
	"github.com/tilt-dev/dockerci/internal/extensions"
	"github.com/tilt-dev/dockerci/internal/links"
	"github.com/tilt-dev/dockerci/pkg/model"
)

// Where the checked-out project is mounted inside the build container.
const DefaultWorkdir = "/var/project"

// Configuration is the build configuration of one build attempt.
//
// It is validated when constructed and immutable afterwards, except for the
// cleanup stack, which collects the teardown commands of every plan made
// from it.
type Configuration struct {
	doc      ciconfig.Value
	buildID  string
	checkout model.ShellCommands

	cli       docker.CLI
	workdir   string
	workspace string

	image     string
	runParams string
	command   commandSpec
	links     []links.Spec

	cleanup *model.CleanupStack
}

type Option func(c *Configuration)

// WithDockerCLI renders every command for the given docker binary.
func WithDockerCLI(cli docker.CLI) Option {
	return func(c *Configuration) {
		c.cli = cli
	}
}

// WithWorkdir sets the directory the project is mounted at in the build
// container.
func WithWorkdir(dir string) Option {
	return func(c *Configuration) {
		c.workdir = dir
	}
}

// WithWorkspace sets the host directory mounted into the build container.
// By default it's the directory the run command is executed in.
func WithWorkspace(dir string) Option {
	return func(c *Configuration) {
		c.workspace = dir
	}
}

// NewConfiguration validates doc and returns the configuration of build
// buildID.
//
// A missing image, a malformed `command` or `links` entry, or an image that
// can't be named as a container is reported here, before any command is
// rendered.
func NewConfiguration(doc ciconfig.Value, buildID string, checkout model.ShellCommands, opts ...Option) (*Configuration, error) {
	c := &Configuration{
		doc:      doc,
		buildID:  buildID,
		checkout: checkout,
		cli:      docker.NewCLI(""),
		workdir:  DefaultWorkdir,
		cleanup:  model.NewCleanupStack(),
	}
	for _, o := range opts {
		o(c)
	}

	if !doc.IsMapping() {
		return nil, &ciconfig.ShapeError{Path: doc.Path(), Line: doc.Line(), Want: "mapping", Got: doc.Kind()}
	}

	image, err := doc.String("image")
	if err != nil {
		return nil, err
	}
	if err := links.ValidateImage("image", image, buildID); err != nil {
		return nil, err
	}
	c.image = image

	if c.runParams, _, err = doc.OptionalString("run_params"); err != nil {
		return nil, err
	}

	if c.command, err = parseCommandSpec(doc); err != nil {
		return nil, err
	}

	if c.links, err = links.ParseSpecs(doc.Get("links")); err != nil {
		return nil, err
	}
	if err := links.Validate(c.links, buildID); err != nil {
		return nil, err
	}
	if err := c.checkPrimaryID(); err != nil {
		return nil, err
	}

	return c, nil
}

// The primary container is named like a service, so no service may use the
// build image.
func (c *Configuration) checkPrimaryID() error {
	id := c.containerID()
	for _, s := range links.Flatten(c.links) {
		if links.ContainerID(s.Image, c.buildID) == id {
			return &links.MalformedIdentityError{
				Path:    s.Path,
				Image:   s.Image,
				BuildID: c.buildID,
				Reason:  fmt.Sprintf("container name %q is already used by the build container", id),
			}
		}
	}
	return nil
}

func (c *Configuration) BuildID() string {
	return c.buildID
}

func (c *Configuration) ImageName() string {
	return c.image
}

// CleanupStack holds the teardown commands of every plan made so far.
func (c *Configuration) CleanupStack() *model.CleanupStack {
	return c.cleanup
}

// WithBuildID returns a copy of the configuration for another build id,
// with an empty cleanup stack. The document is re-validated because the
// build id is part of every container name.
func (c *Configuration) WithBuildID(buildID string) (*Configuration, error) {
	return NewConfiguration(c.doc, buildID, c.checkout,
		WithDockerCLI(c.cli), WithWorkdir(c.workdir), WithWorkspace(c.workspace))
}

// IsParallelized reports whether `command` is a mapping of axis values to
// commands, rather than a flat list.
func (c *Configuration) IsParallelized() bool {
	return c.command.parallel()
}

// AxisList is `command=[main]` for a flat build, or one `command` axis over
// the mapping's keys, in the order they appear in the configuration.
func (c *Configuration) AxisList() model.AxisList {
	if !c.IsParallelized() {
		return model.AxisList{{Name: model.CommandAxis, Values: []string{model.MainCombinationValue}}}
	}
	return model.AxisList{{Name: model.CommandAxis, Values: append([]string{}, c.command.keys...)}}
}

func (c *Configuration) Combinations() []model.Combination {
	return c.AxisList().Combinations()
}

// CommandForCombination returns the commands a combination runs.
//
// A flat build runs the same list whatever the combination. A parallelized
// build looks the combination's command value up in the mapping.
func (c *Configuration) CommandForCombination(comb model.Combination) ([]string, error) {
	if !c.IsParallelized() {
		return append([]string{}, c.command.flat...), nil
	}

	value := comb.Get(model.CommandAxis)
	cmds, ok := c.command.matrix[value]
	if !ok {
		return nil, &ciconfig.ShapeError{
			Path: c.doc.Get("command").Path() + "." + value,
			Want: fmt.Sprintf("one of [%s]", strings.Join(c.command.keys, ", ")),
			Got:  ciconfig.KindNull,
		}
	}
	return append([]string{}, cmds...), nil
}

// RunScript is the checkout commands followed by the combination's
// commands, as one script.
func (c *Configuration) RunScript(comb model.Combination) (string, error) {
	cmds, err := c.CommandForCombination(comb)
	if err != nil {
		return "", err
	}
	return c.checkout.AddAll(model.NewShellCommands(cmds...)).ToSingleShellCommand(), nil
}

// Plugins builds the extensions listed under `plugins`.
func (c *Configuration) Plugins(f extensions.Factory) ([]extensions.Plugin, error) {
	raw, err := c.doc.Get("plugins").RawList()
	if err != nil {
		return nil, err
	}
	return f.CreatePlugins(raw)
}

// Notifiers builds the extensions listed under `notifications`.
func (c *Configuration) Notifiers(f extensions.Factory) ([]extensions.Notifier, error) {
	raw, err := c.doc.Get("notifications").RawList()
	if err != nil {
		return nil, err
	}
	return f.CreateNotifiers(raw)
}

func (c *Configuration) containerID() string {
	return links.ContainerID(c.image, c.buildID)
}
