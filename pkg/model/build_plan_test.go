package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPlanShellScript(t *testing.T) {
	p := BuildPlan{
		Services: []string{"docker run -d --name redis_42 redis"},
		Run:      "docker run --rm --name app_42 --link redis_42:redis app sh -xec make",
		Abort:    "docker kill app_42",
		Cleanup:  []string{"docker kill redis_42", "docker rm redis_42"},
	}

	assert.Equal(t, `set -e
trap 'docker kill app_42 || true; docker kill redis_42 || true; docker rm redis_42 || true' EXIT
docker run -d --name redis_42 redis
docker run --rm --name app_42 --link redis_42:redis app sh -xec make
`, p.ShellScript())
}

func TestBuildPlanTeardown(t *testing.T) {
	p := BuildPlan{Cleanup: []string{"docker kill redis_42", "docker rm redis_42"}}
	assert.Equal(t, p.Cleanup, p.Teardown())

	p.Abort = "docker kill app_42"
	assert.Equal(t, []string{"docker kill app_42", "docker kill redis_42", "docker rm redis_42"}, p.Teardown())
	assert.Len(t, p.Cleanup, 2)
}

func TestBuildPlanShellScriptWithoutServices(t *testing.T) {
	p := BuildPlan{Run: "docker run --rm app sh -xec make"}
	assert.Equal(t, "set -e\ndocker run --rm app sh -xec make\n", p.ShellScript())
}

func TestCmdString(t *testing.T) {
	assert.Equal(t, "docker rm x", ToUnixCmd("  docker rm x ").String())
	assert.Equal(t, `echo "a b"`, Cmd{Argv: []string{"echo", "a b"}}.String())
	assert.True(t, ToUnixCmd("").Empty())

	multi := ToUnixCmd("set -e\nmake")
	assert.True(t, multi.IsShellStandardForm())
	assert.Equal(t, "set -e\nmake", multi.String())
	assert.False(t, Cmd{Argv: []string{"make"}}.IsShellStandardForm())
}
