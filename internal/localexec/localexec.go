// Package localexec provides constructs for uniform execution of local processes,
// specifically conversion from model.Cmd to exec.Cmd.
package localexec

import (
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/tilt-dev/dockerci/pkg/logger"
	"github.com/tilt-dev/dockerci/pkg/model"
)

// Environment variables set for every build step.
const (
	EnvBuildID     = "DOCKERCI_BUILD_ID"
	EnvCombination = "DOCKERCI_COMBINATION"
)

// Common environment for local exec commands.
type Env struct {
	pairs   []kvPair
	environ func() []string
}

func EmptyEnv() *Env {
	return &Env{
		environ: os.Environ,
	}
}

// DefaultEnv marks every step as running under CI, unless the parent
// environment already says otherwise.
func DefaultEnv() *Env {
	e := EmptyEnv()
	e.Add("CI", "true")
	return e
}

// BuildEnv is the per-command environment that tells a step which build it
// belongs to.
func BuildEnv(buildID string, comb model.Combination) []string {
	env := []string{EnvBuildID + "=" + buildID}
	if len(comb) > 0 {
		env = append(env, EnvCombination+"="+comb.String())
	}
	return env
}

func (e *Env) Add(k, v string) {
	e.pairs = append(e.pairs, kvPair{Key: k, Value: v})
}

// ExecCmd creates a stdlib exec.Cmd instance for a build step.
//
// The resulting command will inherit the parent process environment, then
// have logger-driven settings and the Env's pairs added where not already
// set, and finally the command's own environment.
//
// The returned exec.Cmd is NOT associated with any context; the caller
// handles cancellation.
func (e *Env) ExecCmd(cmd model.Cmd, l logger.Logger) (*exec.Cmd, error) {
	if len(cmd.Argv) == 0 {
		return nil, errors.New("empty cmd")
	}
	c := exec.Command(cmd.Argv[0], cmd.Argv[1:]...)
	e.populateExecCmd(c, cmd, l)
	return c, nil
}

func (e *Env) populateExecCmd(c *exec.Cmd, cmd model.Cmd, l logger.Logger) {
	c.Dir = cmd.Dir
	// env precedence: parent process -> logger -> env pairs -> command
	// dupes are left for Go stdlib to handle (API guarantees last wins)
	execEnv := e.environ()

	execEnv = logger.PrepareEnv(l, execEnv)
	for _, kv := range e.pairs {
		execEnv = addEnvIfNotPresent(execEnv, kv.Key, kv.Value)
	}

	execEnv = append(execEnv, cmd.Env...)
	c.Env = execEnv
}

type kvPair struct {
	Key   string
	Value string
}

func addEnvIfNotPresent(env []string, key, value string) []string {
	prefix := key + "="
	for _, e := range env {
		if strings.HasPrefix(e, prefix) {
			return env
		}
	}

	return append(env, key+"="+value)
}
