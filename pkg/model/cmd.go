package model

import (
	"fmt"
	"strings"
)

// Cmd is a local process invocation, as handed to localexec.
type Cmd struct {
	Argv []string
	Dir  string
	Env  []string
}

// IsShellStandardForm reports whether the command is `sh -c <script>`.
// Multi-line scripts count; a plan's run command is one.
func (c Cmd) IsShellStandardForm() bool {
	return len(c.Argv) == 3 && c.Argv[0] == "sh" && c.Argv[1] == "-c"
}

func (c Cmd) String() string {
	if c.IsShellStandardForm() {
		return c.Argv[2]
	}

	quoted := make([]string, len(c.Argv))
	for i, arg := range c.Argv {
		if strings.Contains(arg, " ") {
			quoted[i] = fmt.Sprintf("%q", arg)
		} else {
			quoted[i] = arg
		}
	}
	return strings.Join(quoted, " ")
}

func (c Cmd) Empty() bool {
	return len(c.Argv) == 0
}

// ToUnixCmd wraps a rendered shell line so it runs under sh.
//
// Every command in a build plan is a single shell line, so this is the
// only form the runner needs.
func ToUnixCmd(cmd string) Cmd {
	if cmd == "" {
		return Cmd{}
	}

	// trim spurious spaces and execute them in shell.
	return Cmd{Argv: []string{"sh", "-c", strings.TrimSpace(cmd)}}
}
