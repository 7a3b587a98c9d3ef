// Package procutil starts local processes in their own process group, so a
// cancelled build step takes its children down with it.
package procutil

import (
	"os/exec"
	"syscall"
)

// SetOptNewProcessGroup configures cmd to run in a new process group.
func SetOptNewProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	setOptNewProcessGroup(cmd.SysProcAttr)
}

// KillProcessGroup kills cmd and every process in its group.
func KillProcessGroup(cmd *exec.Cmd) {
	killProcessGroup(cmd)
}
