package build

import (
	"github.com/alessio/shellescape"

	"github.com/tilt-dev/dockerci/internal/docker"
	"github.com/tilt-dev/dockerci/internal/links"
	"github.com/tilt-dev/dockerci/pkg/model"
)

// Plan renders the commands for one combination: the services to start, the
// build container run, the command that stops it if the build is
// interrupted, and the teardown in the order it must run.
//
// Each plan is computed on its own cleanup stack, so planning one combination
// has no effect on another; the stack is then also pushed onto the
// configuration's stack. On error nothing is pushed.
func (c *Configuration) Plan(comb model.Combination) (model.BuildPlan, error) {
	script, err := c.RunScript(comb)
	if err != nil {
		return model.BuildPlan{}, err
	}

	run := c.cli.Command("run").
		Flag("rm").
		FlagValue("name", c.containerID())

	cleanup := model.NewCleanupStack()
	services, err := links.NewPlanner(c.cli, c.buildID, cleanup).Plan(run, c.links)
	if err != nil {
		return model.BuildPlan{}, err
	}

	c.mountWorkspace(run)
	run.BulkOptions(c.runParams).
		Args(c.image, "sh", "-xec", script)

	c.cleanup.PushAll(cleanup)
	teardown := cleanup.Drain()

	return model.BuildPlan{
		Combination: comb,
		Services:    services,
		Run:         run.String(),
		Script:      script,
		Abort:       c.cli.Command("kill").Args(c.containerID()).String(),
		Cleanup:     teardown,
	}, nil
}

func (c *Configuration) mountWorkspace(run *docker.CommandBuilder) {
	if c.workspace == "" {
		// Left to the executing shell, so the plan doesn't depend on where it
		// was computed.
		run.BulkOptions(`-v "$PWD":` + shellescape.Quote(c.workdir))
	} else {
		run.FlagValue("v", c.workspace+":"+c.workdir)
	}
	run.FlagValue("w", c.workdir)
}
