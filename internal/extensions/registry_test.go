package extensions

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilt-dev/dockerci/internal/ciconfig"
	"github.com/tilt-dev/dockerci/pkg/logger"
	"github.com/tilt-dev/dockerci/pkg/model"
)

func TestCreateNotifiers(t *testing.T) {
	r := DefaultRegistry()
	notifiers, err := r.CreateNotifiers([]interface{}{
		"log",
		map[string]interface{}{"log": map[string]interface{}{"on": "failure"}},
	})
	require.NoError(t, err)
	require.Len(t, notifiers, 2)
	assert.Equal(t, logNotifier{on: notifyAlways}, notifiers[0])
	assert.Equal(t, logNotifier{on: notifyFailure}, notifiers[1])
}

func TestCreateNotifiersEmpty(t *testing.T) {
	notifiers, err := DefaultRegistry().CreateNotifiers(nil)
	require.NoError(t, err)
	assert.Empty(t, notifiers)
}

func TestCreateUnknownExtension(t *testing.T) {
	_, err := DefaultRegistry().CreateNotifiers([]interface{}{"log", "hipchat"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownExtension))
	assert.Contains(t, err.Error(), `notifications[1]: no notifier named "hipchat" (known: [log])`)

	_, err = DefaultRegistry().CreatePlugins([]interface{}{"artifacts"})
	assert.True(t, errors.Is(err, ErrUnknownExtension))
}

func TestCreateMalformedEntry(t *testing.T) {
	_, err := DefaultRegistry().CreatePlugins([]interface{}{
		map[string]interface{}{"log": nil, "other": nil},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ciconfig.ErrShape))
	assert.Contains(t, err.Error(), "plugins[0]")
}

func TestBadNotifierOptions(t *testing.T) {
	_, err := DefaultRegistry().CreateNotifiers([]interface{}{
		map[string]interface{}{"log": map[string]interface{}{"on": "sometimes"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `notifications[0]: log: on: expected one of always, failure, success; got "sometimes"`)
}

func TestOptionsOfTheWrongShape(t *testing.T) {
	cases := []struct {
		name     string
		create   func(r *Registry) error
		expected string
	}{
		{
			"scalar notifier options",
			func(r *Registry) error {
				_, err := r.CreateNotifiers([]interface{}{"log", map[string]interface{}{"log": "failure"}})
				return err
			},
			"notifications[1].log: expected mapping of options, found scalar",
		},
		{
			"list option value",
			func(r *Registry) error {
				_, err := r.CreateNotifiers([]interface{}{map[string]interface{}{"log": map[string]interface{}{"on": []interface{}{"failure"}}}})
				return err
			},
			"notifications[0].log.on: expected string, found sequence",
		},
		{
			"plugin options",
			func(r *Registry) error {
				_, err := r.CreatePlugins([]interface{}{map[string]interface{}{"log": map[string]interface{}{"verbose": true}}})
				return err
			},
			"plugins[0].log: expected no options, found mapping",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.create(DefaultRegistry())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ciconfig.ErrShape))
			assert.Equal(t, c.expected, err.Error())
		})
	}
}

type fakePlugin struct {
	name string
	opts ciconfig.Value
}

func (p fakePlugin) Name() string { return p.name }

func (p fakePlugin) RunBefore(ctx context.Context, b BuildContext) error { return nil }

func (p fakePlugin) RunAfter(ctx context.Context, b BuildContext) error { return nil }

func TestRegisterPlugin(t *testing.T) {
	r := NewRegistry()
	r.RegisterPlugin("artifacts", func(opts ciconfig.Value) (Plugin, error) {
		return fakePlugin{name: "artifacts", opts: opts}, nil
	})

	plugins, err := r.CreatePlugins([]interface{}{
		map[string]interface{}{"artifacts": []interface{}{"target/*.jar"}},
	})
	require.NoError(t, err)
	require.Len(t, plugins, 1)

	opts := plugins[0].(fakePlugin).opts
	assert.Equal(t, "plugins[0].artifacts", opts.Path())
	paths, err := opts.AsStringList()
	require.NoError(t, err)
	assert.Equal(t, []string{"target/*.jar"}, paths)
}

func TestConstructorErrorIsWrapped(t *testing.T) {
	r := NewRegistry()
	r.RegisterNotifier("broken", func(opts ciconfig.Value) (Notifier, error) {
		return nil, errors.New("boom")
	})
	_, err := r.CreateNotifiers([]interface{}{"broken"})
	assert.EqualError(t, err, "notifications[0]: broken: boom")
}

func TestLogNotifier(t *testing.T) {
	out := &bytes.Buffer{}
	ctx := logger.WithLogger(context.Background(), logger.NewLogger(logger.InfoLvl, out))
	build := BuildContext{
		BuildID: "42",
		Plan:    model.BuildPlan{Combination: model.NewCommandCombination("test")},
	}

	require.NoError(t, logNotifier{on: notifyAlways}.Notify(ctx, build))
	assert.Equal(t, "Build 42 (command=test) succeeded in 0s\n", out.String())

	out.Reset()
	require.NoError(t, logNotifier{on: notifyFailure}.Notify(ctx, build))
	assert.Empty(t, out.String())

	out.Reset()
	build.ExitCode = 2
	require.NoError(t, logNotifier{on: notifyFailure}.Notify(ctx, build))
	assert.Equal(t, "Build 42 (command=test) failed with exit code 2 in 0s\n", out.String())

	out.Reset()
	require.NoError(t, logNotifier{on: notifySuccess}.Notify(ctx, build))
	assert.Empty(t, out.String())
}

func TestLogPlugin(t *testing.T) {
	out := &bytes.Buffer{}
	ctx := logger.WithLogger(context.Background(), logger.NewLogger(logger.VerboseLvl, out))
	build := BuildContext{
		BuildID: "42",
		Image:   "app",
		Plan: model.BuildPlan{
			Combination: model.NewCommandCombination("main"),
			Services:    []string{"docker run -d --name redis_42 redis"},
		},
	}

	p, err := newLogPlugin(ciconfig.Value{})
	require.NoError(t, err)
	require.NoError(t, p.RunBefore(ctx, build))
	assert.Equal(t, "Build 42: image app, command=main\n  service: docker run -d --name redis_42 redis\n", out.String())
}
