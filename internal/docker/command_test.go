package docker

import (
	"testing"

	"github.com/kballard/go-shellquote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandOrder(t *testing.T) {
	cmd := Command("run").
		Flag("d").
		FlagValue("name", "redis_2_8_42").
		BulkOptions("-p 6379").
		Args("redis:2.8")

	assert.Equal(t, "docker run -d --name redis_2_8_42 -p 6379 redis:2.8", cmd.String())
}

func TestFlagsRenderBeforeBulkAndArgs(t *testing.T) {
	cmd := Command("run").
		BulkOptions("-e FOO=bar").
		Args("app").
		FlagValue("link", "redis_42:redis").
		Flag("rm")

	assert.Equal(t, "docker run --link redis_42:redis --rm -e FOO=bar app", cmd.String())
}

func TestBlankBulkOptionsAreDropped(t *testing.T) {
	assert.Equal(t, "docker kill x", Command("kill").BulkOptions("").BulkOptions("  ").Args("x").String())
}

func TestBulkOptionsArePassedThrough(t *testing.T) {
	cmd := Command("run").BulkOptions(`-e "GREETING=hello world" -v $(pwd):/src`).Args("app")
	assert.Equal(t, `docker run -e "GREETING=hello world" -v $(pwd):/src app`, cmd.String())
}

func TestArgsAreQuoted(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"spaces", []string{"sh", "-cx", "make test"}},
		{"double quotes", []string{"sh", "-cx", `echo "hi there"`}},
		{"single quotes", []string{"sh", "-cx", `echo 'it''s'`}},
		{"dollar", []string{"sh", "-cx", "echo $HOME && exit 1"}},
		{"empty", []string{""}},
		{"newline", []string{"sh", "-c", "make\nmake test"}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			line := Command("run").Args(append([]string{"app"}, c.args...)...).String()
			words, err := shellquote.Split(line)
			require.NoError(t, err)
			assert.Equal(t, append([]string{"docker", "run", "app"}, c.args...), words)
		})
	}
}

func TestFlagValueIsQuoted(t *testing.T) {
	line := Command("run").FlagValue("e", "MSG=hello world").Args("app").String()
	assert.Equal(t, "docker run -e 'MSG=hello world' app", line)

	words, err := shellquote.Split(line)
	require.NoError(t, err)
	assert.Equal(t, []string{"docker", "run", "-e", "MSG=hello world", "app"}, words)
}

func TestImageNamesStayUnquoted(t *testing.T) {
	line := Command("run").Args("registry.example.com:5000/team/app:1.2").String()
	assert.Equal(t, "docker run registry.example.com:5000/team/app:1.2", line)
}

func TestWithBinary(t *testing.T) {
	assert.Equal(t, "podman rm x", NewCLI("podman").Command("rm").Args("x").String())
	assert.Equal(t, "docker rm x", NewCLI("").Command("rm").Args("x").String())
	assert.Equal(t, "'/opt/my docker' ps", Command("ps").WithBinary("/opt/my docker").String())
}
