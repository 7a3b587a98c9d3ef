package runner

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tilt-dev/dockerci/internal/build"
	"github.com/tilt-dev/dockerci/internal/links"
	"github.com/tilt-dev/dockerci/pkg/logger"
	"github.com/tilt-dev/dockerci/pkg/model"
)

// CombinationBuildID is the build id a combination runs under. Each
// combination of a parallelized build gets its own, so the containers of
// concurrent combinations never share a name. The command key is rewritten
// into container name characters: `unit tests` in build 42 runs as
// `42_unit_tests`.
func CombinationBuildID(cfg *build.Configuration, comb model.Combination) string {
	if !cfg.IsParallelized() {
		return cfg.BuildID()
	}
	return fmt.Sprintf("%s_%s", cfg.BuildID(), links.NameSegment(comb.Get(model.CommandAxis)))
}

// PlanJob plans comb on its own copy of cfg.
//
// Fails if another combination of cfg runs under the same build id, e.g.
// `unit tests` and `unit_tests`.
func PlanJob(cfg *build.Configuration, comb model.Combination) (Job, error) {
	id := CombinationBuildID(cfg, comb)
	for _, other := range cfg.Combinations() {
		if other.String() != comb.String() && CombinationBuildID(cfg, other) == id {
			return Job{}, errors.Errorf("%s and %s both run as build %q; rename one of them", comb, other, id)
		}
	}

	sub := cfg
	if id != cfg.BuildID() {
		var err error
		sub, err = cfg.WithBuildID(id)
		if err != nil {
			return Job{}, err
		}
	}
	plan, err := sub.Plan(comb)
	if err != nil {
		return Job{}, err
	}
	return Job{BuildID: id, Image: sub.ImageName(), Plan: plan}, nil
}

// RunMatrix runs every combination, at most parallelism at a time, and
// returns their results in the order of combinations.
//
// All combinations are planned before any of them runs, so a configuration
// error fails the whole matrix without starting a container. A failing
// combination doesn't stop the others; the returned error is a
// MatrixFailure naming the ones that failed.
func (r *Runner) RunMatrix(ctx context.Context, cfg *build.Configuration, combs []model.Combination, parallelism int) ([]Result, error) {
	if parallelism < 1 {
		parallelism = 1
	}

	jobs := make([]Job, len(combs))
	for i, comb := range combs {
		job, err := PlanJob(cfg, comb)
		if err != nil {
			return nil, errors.Wrapf(err, "planning %s", comb)
		}
		jobs[i] = job
	}

	results := make([]Result, len(jobs))
	sem := semaphore.NewWeighted(int64(parallelism))
	g, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)

			jctx := ctx
			if len(jobs) > 1 {
				prefix := fmt.Sprintf("[%s] ", job.Plan.Combination.Get(model.CommandAxis))
				jctx = logger.WithLogger(ctx, logger.NewPrefixedLogger(prefix, logger.Get(ctx)))
			}
			res, _ := r.Run(jctx, job)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	failure := MatrixFailure{Total: len(jobs)}
	for i, res := range results {
		if res.BuildID == "" {
			// Never started: the context was cancelled while waiting.
			results[i] = Result{BuildID: jobs[i].BuildID, Combination: jobs[i].Plan.Combination, ExitCode: -1, Err: ctx.Err()}
			res = results[i]
		}
		if !res.Succeeded() {
			failure.Failed = append(failure.Failed, res.Combination.String())
		}
	}
	if len(failure.Failed) > 0 {
		return results, failure
	}
	return results, nil
}
