package extensions

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/tilt-dev/dockerci/internal/ciconfig"
	"github.com/tilt-dev/dockerci/pkg/logger"
)

const (
	logPluginName   = "log"
	logNotifierName = "log"
)

type logPlugin struct{}

func newLogPlugin(options ciconfig.Value) (Plugin, error) {
	if !options.IsNull() {
		return nil, &ciconfig.ShapeError{Path: options.Path(), Line: options.Line(), Want: "no options", Got: options.Kind()}
	}
	return logPlugin{}, nil
}

func (logPlugin) Name() string { return logPluginName }

func (logPlugin) RunBefore(ctx context.Context, build BuildContext) error {
	l := logger.Get(ctx)
	l.Infof("Build %s: image %s, %s", build.BuildID, build.Image, build.Plan.Combination)
	for _, s := range build.Plan.Services {
		l.Verbosef("  service: %s", s)
	}
	return nil
}

func (logPlugin) RunAfter(ctx context.Context, build BuildContext) error {
	logger.Get(ctx).Verbosef("Build %s finished in %s", build.BuildID, build.Duration)
	return nil
}

// When the log notifier reports.
type notifyOn string

const (
	notifyAlways  notifyOn = "always"
	notifyFailure notifyOn = "failure"
	notifySuccess notifyOn = "success"
)

type logNotifier struct {
	on notifyOn
}

func newLogNotifier(options ciconfig.Value) (Notifier, error) {
	n := logNotifier{on: notifyAlways}
	if options.IsNull() {
		return n, nil
	}
	if !options.IsMapping() {
		return nil, &ciconfig.ShapeError{Path: options.Path(), Line: options.Line(), Want: "mapping of options", Got: options.Kind()}
	}
	on, ok, err := options.OptionalString("on")
	if err != nil {
		return nil, err
	}
	if !ok {
		return n, nil
	}
	switch notifyOn(on) {
	case notifyAlways, notifyFailure, notifySuccess:
		n.on = notifyOn(on)
	default:
		return nil, errors.Errorf("on: expected one of always, failure, success; got %q", on)
	}
	return n, nil
}

func (n logNotifier) Name() string { return logNotifierName }

func (n logNotifier) Notify(ctx context.Context, build BuildContext) error {
	ok := build.Succeeded()
	if (n.on == notifyFailure && ok) || (n.on == notifySuccess && !ok) {
		return nil
	}

	l := logger.Get(ctx)
	status := logger.Green(l).Sprint("succeeded")
	if !ok {
		status = logger.Red(l).Sprint("failed")
		if build.Err != nil {
			status = fmt.Sprintf("%s: %v", status, build.Err)
		} else {
			status = fmt.Sprintf("%s with exit code %d", status, build.ExitCode)
		}
	}
	l.Infof("Build %s (%s) %s in %s", build.BuildID, build.Plan.Combination, status, build.Duration)
	return nil
}
