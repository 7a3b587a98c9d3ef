package docker

import (
	"strings"

	"github.com/alessio/shellescape"
)

const DefaultBinary = "docker"

// CLI renders commands for one docker binary.
type CLI struct {
	Binary string
}

func NewCLI(binary string) CLI {
	if binary == "" {
		binary = DefaultBinary
	}
	return CLI{Binary: binary}
}

func (c CLI) Command(name string) *CommandBuilder {
	return Command(name).WithBinary(c.Binary)
}

// CommandBuilder assembles one docker CLI invocation as a shell line.
//
// Flags render before bulk options, which render before positional args.
// Within each group, call order is kept.
type CommandBuilder struct {
	binary string
	name   string
	flags  []string
	bulk   []string
	args   []string
}

// Command starts a `docker <name>` invocation.
func Command(name string) *CommandBuilder {
	return &CommandBuilder{binary: DefaultBinary, name: name}
}

func (b *CommandBuilder) WithBinary(binary string) *CommandBuilder {
	if binary != "" {
		b.binary = binary
	}
	return b
}

// Flag appends a boolean flag: `-k` for a one-letter key, `--key` otherwise.
func (b *CommandBuilder) Flag(key string) *CommandBuilder {
	b.flags = append(b.flags, flagName(key))
	return b
}

// FlagValue appends a flag followed by its shell-quoted value.
func (b *CommandBuilder) FlagValue(key, value string) *CommandBuilder {
	b.flags = append(b.flags, flagName(key)+" "+shellescape.Quote(value))
	return b
}

// BulkOptions appends a pre-formatted options string exactly as given.
// Quoting it is the caller's job. Blank options are dropped.
func (b *CommandBuilder) BulkOptions(raw string) *CommandBuilder {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		b.bulk = append(b.bulk, raw)
	}
	return b
}

// Args appends shell-quoted positional arguments.
func (b *CommandBuilder) Args(args ...string) *CommandBuilder {
	for _, a := range args {
		b.args = append(b.args, shellescape.Quote(a))
	}
	return b
}

// String renders the single-line shell command.
func (b *CommandBuilder) String() string {
	parts := make([]string, 0, 2+len(b.flags)+len(b.bulk)+len(b.args))
	parts = append(parts, shellescape.Quote(b.binary), b.name)
	parts = append(parts, b.flags...)
	parts = append(parts, b.bulk...)
	parts = append(parts, b.args...)
	return strings.Join(parts, " ")
}

func flagName(key string) string {
	if len(key) == 1 {
		return "-" + key
	}
	return "--" + key
}
