package localexec

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"

	"github.com/tilt-dev/dockerci/pkg/logger"
	"github.com/tilt-dev/dockerci/pkg/model"
	"github.com/tilt-dev/dockerci/pkg/procutil"
)

type RunIO struct {
	// Stdin for the process
	Stdin io.Reader
	// Stdout for the process
	Stdout io.Writer
	// Stderr for the process
	Stderr io.Writer
}

type Execer interface {
	// Run executes a command and waits for it to complete.
	//
	// If the context is canceled before the process terminates, the process will be killed.
	Run(ctx context.Context, cmd model.Cmd, runIO RunIO) (int, error)
}

// RunToLogger runs cmd with its output sent to the context's logger at
// level, returning the exit code.
func RunToLogger(ctx context.Context, execer Execer, cmd model.Cmd, level logger.Level) (int, error) {
	out := logger.Get(ctx).Writer(level)
	return execer.Run(ctx, cmd, RunIO{Stdout: out, Stderr: out})
}

type ProcessExecer struct {
	env *Env
}

var _ Execer = &ProcessExecer{}

func NewProcessExecer(env *Env) *ProcessExecer {
	return &ProcessExecer{env: env}
}

func (p ProcessExecer) Run(ctx context.Context, cmd model.Cmd, runIO RunIO) (int, error) {
	osCmd, err := p.env.ExecCmd(cmd, logger.Get(ctx))
	if err != nil {
		return -1, err
	}

	procutil.SetOptNewProcessGroup(osCmd)

	osCmd.Stdin = runIO.Stdin
	osCmd.Stdout = runIO.Stdout
	osCmd.Stderr = runIO.Stderr

	if err := osCmd.Start(); err != nil {
		return -1, err
	}

	// monitor context cancel in a background goroutine and forcibly kill the process group if it's exceeded
	// (N.B. an exit code of 137 is forced; otherwise, it's possible for the main process to exit with 0 after
	// its children are killed, which is misleading)
	// the sync.Once provides synchronization with the main function that's blocked on Cmd::Wait()
	var exitCode int
	var handleProcessExit sync.Once
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		handleProcessExit.Do(
			func() {
				procutil.KillProcessGroup(osCmd)
				exitCode = 137
			})
	}()

	// this WILL block on child processes, but that's ok since we handle the timeout termination in a goroutine above
	// and it's preferable vs using Process::Wait() since that complicates I/O handling (Cmd::Wait() will
	// ensure all I/O is complete before returning)
	err = osCmd.Wait()
	if exitErr, ok := err.(*exec.ExitError); ok {
		handleProcessExit.Do(
			func() {
				exitCode = exitErr.ExitCode()
			})
		err = nil
	} else if err != nil {
		handleProcessExit.Do(
			func() {
				exitCode = -1
			})
	} else {
		// explicitly consume the sync.Once to prevent a data race with the goroutine waiting on the context
		// (since process completed successfully, exit code is 0, so no need to set anything)
		handleProcessExit.Do(func() {})
	}
	return exitCode, err
}

type fakeCmdResult struct {
	exitCode int
	err      error
	stdout   []byte
	stderr   []byte

	run func(ctx context.Context) (int, error)
}

type FakeCall struct {
	Cmd      model.Cmd
	ExitCode int
	Error    error
}

func (f FakeCall) String() string {
	return fmt.Sprintf("cmd=%q exitCode=%d err=%v", f.Cmd.String(), f.ExitCode, f.Error)
}

type FakeExecer struct {
	t  testing.TB
	mu sync.Mutex

	cmds map[string]fakeCmdResult

	calls []FakeCall
}

var _ Execer = &FakeExecer{}

func NewFakeExecer(t testing.TB) *FakeExecer {
	return &FakeExecer{
		t:    t,
		cmds: make(map[string]fakeCmdResult),
	}
}

func (f *FakeExecer) Run(ctx context.Context, cmd model.Cmd, runIO RunIO) (exitCode int, err error) {
	f.t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	defer func() {
		f.calls = append(f.calls, FakeCall{
			Cmd:      cmd,
			ExitCode: exitCode,
			Error:    err,
		})
	}()

	// ProcessExecer kills the process group of a cancelled command and
	// reports it as killed.
	if ctx.Err() != nil {
		return 137, nil
	}

	if r, ok := f.cmds[cmd.String()]; ok {
		if r.run != nil {
			return r.run(ctx)
		}
		if r.err != nil {
			return -1, r.err
		}

		if runIO.Stdout != nil && len(r.stdout) != 0 {
			if _, err := runIO.Stdout.Write(r.stdout); err != nil {
				return -1, errors.Wrap(err, "error writing to stdout")
			}
		}

		if runIO.Stderr != nil && len(r.stderr) != 0 {
			if _, err := runIO.Stderr.Write(r.stderr); err != nil {
				return -1, errors.Wrap(err, "error writing to stderr")
			}
		}

		return r.exitCode, nil
	}

	return 0, nil
}

func (f *FakeExecer) RegisterCommandError(cmd string, err error) {
	f.t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds[cmd] = fakeCmdResult{
		err: err,
	}
}

// RegisterCommand adds or replaces a command to the FakeExecer.
//
// If the output strings are not newline terminated, a newline will automatically be added.
func (f *FakeExecer) RegisterCommand(cmd string, exitCode int, stdout string, stderr string) {
	if stdout != "" && !strings.HasSuffix(stdout, "\n") {
		stdout += "\n"
	}

	if stderr != "" && !strings.HasSuffix(stderr, "\n") {
		stderr += "\n"
	}

	f.registerCommand(cmd, exitCode, []byte(stdout), []byte(stderr))
}

// RegisterCommandFunc makes the FakeExecer call run in place of cmd, with
// the context the command was run under.
func (f *FakeExecer) RegisterCommandFunc(cmd string, run func(ctx context.Context) (int, error)) {
	f.t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds[cmd] = fakeCmdResult{run: run}
}

func (f *FakeExecer) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall{}, f.calls...)
}

// CallStrings lists the commands run so far, in order.
func (f *FakeExecer) CallStrings() []string {
	var res []string
	for _, c := range f.Calls() {
		res = append(res, c.Cmd.String())
	}
	return res
}

func (f *FakeExecer) registerCommand(cmd string, exitCode int, stdout []byte, stderr []byte) {
	f.t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cmds[cmd] = fakeCmdResult{
		exitCode: exitCode,
		stdout:   stdout,
		stderr:   stderr,
	}
}
