package ciconfig

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromInterfaceSortsMapKeys(t *testing.T) {
	v, err := FromInterface(map[string]interface{}{
		"command": map[string]interface{}{"test": "make test", "build": "make build"},
		"image":   "app",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"command", "image"}, v.Keys())
	assert.Equal(t, []string{"build", "test"}, v.Get("command").Keys())
	assert.Equal(t, "command.test", v.Get("command").Get("test").Path())
}

func TestFromInterfaceNestedLists(t *testing.T) {
	v, err := FromInterface(map[string]interface{}{
		"links": []map[string]interface{}{
			{"image": "redis", "links": []interface{}{map[interface{}]interface{}{"image": "mysql"}}},
		},
	})
	require.NoError(t, err)

	links, err := v.Get("links").AsSequence()
	require.NoError(t, err)
	nested, err := links[0].Get("links").AsSequence()
	require.NoError(t, err)
	img, err := nested[0].String("image")
	require.NoError(t, err)
	assert.Equal(t, "mysql", img)
	assert.Equal(t, "links[0].links[0].image", nested[0].Get("image").Path())
}

func TestFromInterfaceRejectsUnsupported(t *testing.T) {
	_, err := FromInterface(map[string]interface{}{"image": struct{}{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image: unsupported configuration value")
}

func TestFromInterfaceEmbedsValue(t *testing.T) {
	inner := MustFromInterface([]string{"make"})
	v := MustFromInterface(map[string]interface{}{"command": inner})
	assert.Equal(t, "command[0]", mustItems(t, v.Get("command"))[0].Path())
}

func TestAsStringListRejectsScalar(t *testing.T) {
	v := MustFromInterface(map[string]interface{}{"command": "make test"})
	_, err := v.Get("command").AsStringList()
	require.Error(t, err)

	var shapeErr *ShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, "command", shapeErr.Path)
	assert.Equal(t, "list of strings", shapeErr.Want)
	assert.Equal(t, KindScalar, shapeErr.Got)
}

func TestAsStringListRejectsNestedList(t *testing.T) {
	v := MustFromInterface(map[string]interface{}{"command": []interface{}{"make", []interface{}{"x"}}})
	_, err := v.Get("command").AsStringList()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command[1]: expected string, found sequence")
}

func TestGetOnMissingKeyIsNull(t *testing.T) {
	v := MustFromInterface(map[string]interface{}{"image": "app"})
	missing := v.Get("command")
	assert.True(t, missing.IsNull())
	assert.Equal(t, "command", missing.Path())

	_, err := missing.AsString()
	assert.Equal(t, "command: expected string, found null", err.Error())
}

func TestStringOnNonMapping(t *testing.T) {
	v := MustFromInterface([]string{"a"})
	_, err := v.String("image")
	assert.True(t, errors.Is(err, ErrShape))
}

func TestScalarText(t *testing.T) {
	v := MustFromInterface(map[string]interface{}{"port": 6379, "debug": true})
	s, err := v.Get("port").AsString()
	require.NoError(t, err)
	assert.Equal(t, "6379", s)
	assert.Equal(t, 6379, v.Get("port").Raw())
	assert.Equal(t, true, v.Get("debug").Raw())
}

func mustItems(t *testing.T, v Value) []Value {
	t.Helper()
	items, err := v.AsSequence()
	require.NoError(t, err)
	return items
}
