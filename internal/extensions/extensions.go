// Package extensions builds the plugins and notifiers a build configuration
// asks for.
//
// The configuration lists them under `plugins` and `notifications`. Each
// entry is either a bare name or a single-key mapping from the name to its
// options:
//
//	notifications:
//	  - log
//	  - log:
//	      on: failure
package extensions

import (
	"context"
	"time"

	"github.com/tilt-dev/dockerci/pkg/model"
)

// BuildContext describes the build an extension is attached to.
type BuildContext struct {
	BuildID string
	Image   string
	Plan    model.BuildPlan

	// Outcome, set once the build has run.
	ExitCode int
	Err      error
	Duration time.Duration
}

func (b BuildContext) Succeeded() bool {
	return b.Err == nil && b.ExitCode == 0
}

// Plugin runs alongside a build.
type Plugin interface {
	Name() string
	RunBefore(ctx context.Context, build BuildContext) error
	RunAfter(ctx context.Context, build BuildContext) error
}

// Notifier reports a finished build.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, build BuildContext) error
}

// Factory turns the raw `plugins` / `notifications` lists into extensions.
type Factory interface {
	CreatePlugins(raw []interface{}) ([]Plugin, error)
	CreateNotifiers(raw []interface{}) ([]Notifier, error)
}
