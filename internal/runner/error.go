package runner

import (
	"fmt"

	"github.com/pkg/errors"
)

// RunStepFailure indicates that the build failed because one of the user's
// steps exited non-zero, as opposed to an infrastructure issue.
type RunStepFailure struct {
	Step     StepKind
	Command  string
	ExitCode int
}

func (e RunStepFailure) Error() string {
	return fmt.Sprintf("%s step exited with code %d: %s", e.Step, e.ExitCode, firstLine(e.Command))
}

func IsRunStepFailure(err error) bool {
	var rsf RunStepFailure
	return errors.As(err, &rsf)
}

var _ error = RunStepFailure{}

// MatrixFailure reports the combinations of a matrix run that didn't
// succeed.
type MatrixFailure struct {
	Failed []string
	Total  int
}

func (e MatrixFailure) Error() string {
	return fmt.Sprintf("%d of %d combinations failed: %v", len(e.Failed), e.Total, e.Failed)
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i] + " ..."
		}
	}
	return s
}
