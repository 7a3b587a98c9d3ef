package localexec

import (
	"bytes"
	"context"
	"os"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilt-dev/dockerci/internal/testutils"
	"github.com/tilt-dev/dockerci/internal/testutils/bufsync"
	"github.com/tilt-dev/dockerci/pkg/logger"
	"github.com/tilt-dev/dockerci/pkg/model"
)

func skipIfWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test not supported on Windows")
	}
}

func TestProcessExecer_Run(t *testing.T) {
	skipIfWindows(t)
	ctx, cancel := context.WithTimeout(testutils.CtxForTest(), 5*time.Second)
	defer cancel()

	script := `echo hello from stdout && echo hello from stderr 1>&2`

	execer := NewProcessExecer(EmptyEnv())

	var stdout, stderr bytes.Buffer
	exitCode, err := execer.Run(ctx, model.ToUnixCmd(script), RunIO{Stdout: &stdout, Stderr: &stderr})

	require.NoError(t, err)
	assert.Equal(t, 0, exitCode)
	assert.Equal(t, "hello from stdout", strings.TrimSpace(stdout.String()))
	assert.Equal(t, "hello from stderr", strings.TrimSpace(stderr.String()))
}

func TestProcessExecer_ExitCode(t *testing.T) {
	skipIfWindows(t)
	execer := NewProcessExecer(EmptyEnv())
	exitCode, err := execer.Run(testutils.CtxForTest(), model.ToUnixCmd("exit 3"), RunIO{})
	require.NoError(t, err)
	assert.Equal(t, 3, exitCode)
}

func TestProcessExecer_EmptyCmd(t *testing.T) {
	execer := NewProcessExecer(EmptyEnv())
	exitCode, err := execer.Run(testutils.CtxForTest(), model.Cmd{}, RunIO{})
	assert.Error(t, err)
	assert.Equal(t, -1, exitCode)
}

func TestProcessExecer_BuildEnv(t *testing.T) {
	skipIfWindows(t)
	execer := NewProcessExecer(DefaultEnv())
	cmd := model.ToUnixCmd(`echo "$DOCKERCI_BUILD_ID $DOCKERCI_COMBINATION $CI"`)
	cmd.Env = BuildEnv("42", model.NewCommandCombination("test"))

	var stdout bytes.Buffer
	_, err := execer.Run(testutils.CtxForTest(), cmd, RunIO{Stdout: &stdout})
	require.NoError(t, err)
	if os.Getenv("CI") == "" {
		assert.Equal(t, "42 command=test true", strings.TrimSpace(stdout.String()))
	} else {
		assert.True(t, strings.HasPrefix(strings.TrimSpace(stdout.String()), "42 command=test "))
	}
}

func TestProcessExecer_Run_ProcessGroup(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode")
	}
	skipIfWindows(t)

	ctx, cancel := context.WithTimeout(testutils.CtxForTest(), 500*time.Millisecond)
	defer cancel()

	script := `sleep 60 & echo $!`

	// to speed up test execution, as soon as we see the PID written to stdout, cancel the context
	// to trigger process termination
	var childPid int
	stdoutBuf := bufsync.NewThreadSafeBuffer()
	go func() {
		for {
			if ctx.Err() != nil {
				return
			}
			output := strings.TrimSpace(stdoutBuf.String())
			if output != "" {
				var err error
				childPid, err = strconv.Atoi(output)
				if err == nil {
					cancel()
					return
				}
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()

	execer := NewProcessExecer(EmptyEnv())
	exitCode, err := execer.Run(ctx, model.ToUnixCmd(script), RunIO{Stdout: stdoutBuf})

	require.NoError(t, err)
	assert.Equal(t, 137, exitCode)

	if assert.NotZero(t, childPid, "Process did not write child PID to stdout") {
		// os.FindProcess is a no-op on Unix-like systems and always succeeds; need to send signal 0 to check whether it exists
		proc, _ := os.FindProcess(childPid)
		childProcStopped := assert.Eventually(t, func() bool {
			err = proc.Signal(syscall.Signal(0))
			return errors.Is(err, os.ErrProcessDone)
		}, time.Second, 50*time.Millisecond, "Child process was still running")
		if !childProcStopped {
			_ = proc.Kill()
		}
	}
}

func TestFakeExecer(t *testing.T) {
	f := NewFakeExecer(t)
	f.RegisterCommand("docker kill x", 1, "", "no such container")
	f.RegisterCommandError("docker rm x", errors.New("docker not found"))

	ctx := testutils.CtxForTest()
	var stderr bytes.Buffer

	exitCode, err := f.Run(ctx, model.ToUnixCmd("docker kill x"), RunIO{Stderr: &stderr})
	require.NoError(t, err)
	assert.Equal(t, 1, exitCode)
	assert.Equal(t, "no such container\n", stderr.String())

	_, err = f.Run(ctx, model.ToUnixCmd("docker rm x"), RunIO{})
	assert.EqualError(t, err, "docker not found")

	exitCode, err = f.Run(ctx, model.ToUnixCmd("make"), RunIO{})
	require.NoError(t, err)
	assert.Equal(t, 0, exitCode)

	assert.Equal(t, []string{"docker kill x", "docker rm x", "make"}, f.CallStrings())
}

func TestFakeExecerCancelled(t *testing.T) {
	f := NewFakeExecer(t)
	ctx, cancel := context.WithCancel(testutils.CtxForTest())
	cancel()

	exitCode, err := f.Run(ctx, model.ToUnixCmd("make"), RunIO{})
	require.NoError(t, err)
	assert.Equal(t, 137, exitCode)
}

func TestRunToLogger(t *testing.T) {
	f := NewFakeExecer(t)
	f.RegisterCommand("make", 2, "compiling", "")

	var out bytes.Buffer
	ctx := testutils.LoggerCtxForTest(&out, logger.InfoLvl)

	exitCode, err := RunToLogger(ctx, f, model.ToUnixCmd("make"), logger.InfoLvl)
	require.NoError(t, err)
	assert.Equal(t, 2, exitCode)
	assert.Equal(t, "compiling\n", out.String())

	out.Reset()
	_, err = RunToLogger(ctx, f, model.ToUnixCmd("make"), logger.DebugLvl)
	require.NoError(t, err)
	assert.Empty(t, out.String())
}
