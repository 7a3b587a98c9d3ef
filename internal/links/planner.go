package links

import (
	"github.com/tilt-dev/dockerci/internal/docker"
	"github.com/tilt-dev/dockerci/pkg/model"
)

// Planner expands link specs into service start commands, `--link` flags and
// teardown commands for one build.
//
// A Planner is not safe for concurrent use. Plan each build combination with
// its own Planner and cleanup stack.
type Planner struct {
	cli     docker.CLI
	buildID string
	cleanup *model.CleanupStack
}

func NewPlanner(cli docker.CLI, buildID string, cleanup *model.CleanupStack) *Planner {
	if cleanup == nil {
		cleanup = model.NewCleanupStack()
	}
	return &Planner{cli: cli, buildID: buildID, cleanup: cleanup}
}

func (p *Planner) Cleanup() *model.CleanupStack {
	return p.cleanup
}

// Plan returns the commands that start every service in specs, nested links
// first, and adds a `--link` flag to runCmd for each top-level spec.
//
// As each service is planned, its `rm` and `kill` commands are pushed onto the
// cleanup stack, so unwinding the stack stops services in reverse start order.
// The tree is validated up front: on error, nothing is emitted, runCmd is
// untouched and the stack is unchanged.
func (p *Planner) Plan(runCmd *docker.CommandBuilder, specs []Spec) ([]string, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	if err := Validate(specs, p.buildID); err != nil {
		return nil, err
	}

	starts := p.start(specs)
	p.link(runCmd, specs)
	return starts, nil
}

func (p *Planner) start(specs []Spec) []string {
	var cmds []string
	for _, s := range specs {
		id := ContainerID(s.Image, p.buildID)

		// Deeper dependencies start before the service that links them.
		cmds = append(cmds, p.start(s.Links)...)

		run := p.cli.Command("run").
			Flag("d").
			FlagValue("name", id)
		p.link(run, s.Links)
		run.BulkOptions(s.RunParams)
		if s.Command != "" {
			run.Args(s.Image, "sh", "-cx", s.Command)
		} else {
			run.Args(s.Image)
		}
		cmds = append(cmds, run.String())

		p.cleanup.Push(
			p.cli.Command("rm").Args(id).String(),
			p.cli.Command("kill").Args(id).String(),
		)
	}
	return cmds
}

func (p *Planner) link(cmd *docker.CommandBuilder, specs []Spec) {
	for _, l := range LinkFlags(specs, p.buildID) {
		cmd.FlagValue("link", l)
	}
}
