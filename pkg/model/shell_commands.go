package model

import "strings"

// ShellCommands is an ordered list of rendered shell lines.
//
// The checkout sequence handed to a build and the build's own command list
// are both ShellCommands; they're concatenated into the script that runs
// inside the build container.
type ShellCommands struct {
	commands []string
}

func NewShellCommands(cmds ...string) ShellCommands {
	return ShellCommands{commands: append([]string{}, cmds...)}
}

// Add returns a copy with cmds appended.
func (s ShellCommands) Add(cmds ...string) ShellCommands {
	res := make([]string, 0, len(s.commands)+len(cmds))
	res = append(res, s.commands...)
	res = append(res, cmds...)
	return ShellCommands{commands: res}
}

// AddAll returns a copy with every command of other appended.
func (s ShellCommands) AddAll(other ShellCommands) ShellCommands {
	return s.Add(other.commands...)
}

func (s ShellCommands) Len() int {
	return len(s.commands)
}

func (s ShellCommands) Empty() bool {
	return len(s.commands) == 0
}

func (s ShellCommands) Commands() []string {
	return append([]string{}, s.commands...)
}

// ToSingleShellCommand joins the commands into one script, one command per
// line. Run under `sh -e`, the first failing line stops the script.
func (s ShellCommands) ToSingleShellCommand() string {
	return strings.Join(s.commands, "\n")
}
