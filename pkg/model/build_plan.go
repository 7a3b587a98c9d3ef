package model

import (
	"fmt"
	"strings"

	"github.com/alessio/shellescape"
)

// BuildPlan is the rendered command plan for one build combination.
//
// Services must run in order before Run. Cleanup must run after Run in the
// order given, whether or not anything before it failed.
//
// Abort stops the build container. Killing the client that started Run
// leaves the container running, so Abort must run before Cleanup when Run
// was interrupted.
type BuildPlan struct {
	Combination Combination `yaml:"combination"`
	Services    []string    `yaml:"services,omitempty"`
	Run         string      `yaml:"run"`
	Script      string      `yaml:"script"`
	Abort       string      `yaml:"abort,omitempty"`
	Cleanup     []string    `yaml:"cleanup,omitempty"`
}

// Teardown is Abort followed by Cleanup.
func (p BuildPlan) Teardown() []string {
	if p.Abort == "" {
		return p.Cleanup
	}
	return append([]string{p.Abort}, p.Cleanup...)
}

// ShellScript renders the whole plan as one POSIX shell script. The teardown
// is installed as an EXIT trap before any service starts, so a failing
// service still tears down the ones started before it.
func (p BuildPlan) ShellScript() string {
	var sb strings.Builder
	sb.WriteString("set -e\n")
	if cmds := p.Teardown(); len(cmds) > 0 {
		teardown := make([]string, len(cmds))
		for i, c := range cmds {
			// Containers that never started make kill/rm fail; keep going.
			teardown[i] = fmt.Sprintf("%s || true", c)
		}
		sb.WriteString(fmt.Sprintf("trap %s EXIT\n", shellescape.Quote(strings.Join(teardown, "; "))))
	}
	for _, s := range p.Services {
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	sb.WriteString(p.Run)
	sb.WriteString("\n")
	return sb.String()
}
