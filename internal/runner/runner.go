// Package runner executes build plans on the local machine.
//
// A plan runs its service start commands in order, then the build container,
// then every cleanup command. Cleanup always runs to completion, including
// when a step failed or the build was cancelled.
package runner

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/tilt-dev/dockerci/internal/extensions"
	"github.com/tilt-dev/dockerci/internal/localexec"
	"github.com/tilt-dev/dockerci/pkg/logger"
	"github.com/tilt-dev/dockerci/pkg/model"
)

type StepKind string

const (
	StepService StepKind = "service"
	StepRun     StepKind = "run"
	StepAbort   StepKind = "abort"
	StepCleanup StepKind = "cleanup"
)

type StepResult struct {
	Kind     StepKind
	Command  string
	ExitCode int
	// Err is set when the step couldn't be executed at all.
	Err      error
	Duration time.Duration
}

func (s StepResult) Failed() bool {
	return s.Err != nil || s.ExitCode != 0
}

// Job is one build combination, ready to run.
type Job struct {
	BuildID string
	Image   string
	Plan    model.BuildPlan
}

type Result struct {
	BuildID     string
	Combination model.Combination
	Steps       []StepResult

	// ExitCode of the failing step, or of the run step when nothing failed.
	ExitCode int
	// Err is the reason the build failed. Cleanup failures never set it.
	Err      error
	Duration time.Duration
}

func (r Result) Succeeded() bool {
	return r.Err == nil && r.ExitCode == 0
}

// CleanupFailures lists the teardown steps that failed, abort included.
func (r Result) CleanupFailures() []StepResult {
	var res []StepResult
	for _, s := range r.Steps {
		if (s.Kind == StepCleanup || s.Kind == StepAbort) && s.Failed() {
			res = append(res, s)
		}
	}
	return res
}

type Runner struct {
	execer    localexec.Execer
	clock     clockwork.Clock
	plugins   []extensions.Plugin
	notifiers []extensions.Notifier
}

type Option func(r *Runner)

func WithPlugins(plugins []extensions.Plugin) Option {
	return func(r *Runner) {
		r.plugins = plugins
	}
}

func WithNotifiers(notifiers []extensions.Notifier) Option {
	return func(r *Runner) {
		r.notifiers = notifiers
	}
}

func NewRunner(execer localexec.Execer, clock clockwork.Clock, opts ...Option) *Runner {
	r := &Runner{execer: execer, clock: clock}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run executes job and returns its result. The returned error is the build's
// failure, the same as Result.Err.
//
// Plugins run before the first service and after the last cleanup command.
// Notifiers are told about every finished build. Neither can change the
// outcome once the build has started; their errors are only logged.
func (r *Runner) Run(ctx context.Context, job Job) (Result, error) {
	l := logger.Get(ctx).WithFields(logger.Fields{
		logger.FieldNameBuildID:     job.BuildID,
		logger.FieldNameCombination: job.Plan.Combination.String(),
	})
	ctx = logger.WithLogger(ctx, l)
	start := r.clock.Now()
	res := Result{BuildID: job.BuildID, Combination: job.Plan.Combination}

	bc := extensions.BuildContext{BuildID: job.BuildID, Image: job.Image, Plan: job.Plan}
	for _, p := range r.plugins {
		if err := p.RunBefore(ctx, bc); err != nil {
			// Nothing has started, so there's nothing to clean up.
			res.ExitCode = -1
			res.Err = err
			res.Duration = r.clock.Since(start)
			l.Errorf("Plugin %s: %v", p.Name(), err)
			r.notify(ctx, bc, res)
			return res, res.Err
		}
	}

	r.runSteps(ctx, job, &res)

	teardownCtx := context.WithoutCancel(ctx)
	if ctx.Err() != nil && res.started(StepRun) && job.Plan.Abort != "" {
		l.Infof("Build interrupted, stopping the build container")
		r.teardown(teardownCtx, job, StepAbort, []string{job.Plan.Abort}, &res)
	}
	r.teardown(teardownCtx, job, StepCleanup, job.Plan.Cleanup, &res)
	res.Duration = r.clock.Since(start)

	bc.ExitCode, bc.Err, bc.Duration = res.ExitCode, res.Err, res.Duration
	for _, p := range r.plugins {
		if err := p.RunAfter(ctx, bc); err != nil {
			l.Warnf("Plugin %s: %v", p.Name(), err)
		}
	}
	r.notify(ctx, bc, res)

	return res, res.Err
}

func (r *Runner) runSteps(ctx context.Context, job Job, res *Result) {
	l := logger.Get(ctx)
	for _, s := range job.Plan.Services {
		if interrupted(ctx, res) {
			return
		}
		l.Infof("%s %s", logger.Blue(l).Sprint("Starting service:"), s)
		step := r.step(ctx, job, StepService, s, logger.VerboseLvl)
		res.Steps = append(res.Steps, step)
		if step.Failed() {
			fail(ctx, res, step)
			return
		}
	}

	if interrupted(ctx, res) {
		return
	}
	l.Infof("%s %s", logger.Blue(l).Sprint("Running build:"), job.Plan.Combination)
	step := r.step(ctx, job, StepRun, job.Plan.Run, logger.InfoLvl)
	res.Steps = append(res.Steps, step)
	res.ExitCode = step.ExitCode
	if step.Failed() || ctx.Err() != nil {
		fail(ctx, res, step)
	}
}

// teardown runs every command even when earlier ones fail, and expects ctx to
// be immune to the build's cancellation.
func (r *Runner) teardown(ctx context.Context, job Job, kind StepKind, cmds []string, res *Result) {
	l := logger.Get(ctx)
	for _, c := range cmds {
		l.Debugf("Cleaning up: %s", c)
		step := r.step(ctx, job, kind, c, logger.DebugLvl)
		res.Steps = append(res.Steps, step)
		if step.Failed() {
			if step.Err != nil {
				l.Warnf("Cleanup %q failed: %v", c, step.Err)
			} else {
				l.Warnf("Cleanup %q exited with code %d", c, step.ExitCode)
			}
		}
	}
}

func (r Result) started(kind StepKind) bool {
	for _, s := range r.Steps {
		if s.Kind == kind {
			return true
		}
	}
	return false
}

func (r *Runner) step(ctx context.Context, job Job, kind StepKind, line string, level logger.Level) StepResult {
	cmd := model.ToUnixCmd(line)
	cmd.Env = localexec.BuildEnv(job.BuildID, job.Plan.Combination)

	start := r.clock.Now()
	exitCode, err := localexec.RunToLogger(ctx, r.execer, cmd, level)
	return StepResult{
		Kind:     kind,
		Command:  line,
		ExitCode: exitCode,
		Err:      err,
		Duration: r.clock.Since(start),
	}
}

// interrupted marks res as cancelled once ctx is done.
func interrupted(ctx context.Context, res *Result) bool {
	if ctx.Err() == nil {
		return false
	}
	res.ExitCode = -1
	res.Err = ctx.Err()
	return true
}

func fail(ctx context.Context, res *Result, step StepResult) {
	res.ExitCode = step.ExitCode
	if ctx.Err() != nil {
		// The exit code is the kill's, not the build's.
		res.Err = errors.Wrapf(ctx.Err(), "%s step interrupted", step.Kind)
		return
	}
	if step.Err != nil {
		res.Err = step.Err
		return
	}
	res.Err = RunStepFailure{Step: step.Kind, Command: step.Command, ExitCode: step.ExitCode}
}

func (r *Runner) notify(ctx context.Context, bc extensions.BuildContext, res Result) {
	bc.ExitCode, bc.Err, bc.Duration = res.ExitCode, res.Err, res.Duration
	for _, n := range r.notifiers {
		if err := n.Notify(ctx, bc); err != nil {
			logger.Get(ctx).Warnf("Notifier %s: %v", n.Name(), err)
		}
	}
}
