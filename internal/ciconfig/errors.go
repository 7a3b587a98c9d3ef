package ciconfig

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrShape matches every *ShapeError.
	ErrShape = errors.New("configuration shape error")
	// ErrMissingField matches every *MissingFieldError.
	ErrMissingField = errors.New("missing required field")
	// ErrAlias matches every *AliasError.
	ErrAlias = errors.New("bad alias")
)

// ShapeError reports a value that is present but has the wrong shape,
// e.g. a scalar where a list of commands was expected.
type ShapeError struct {
	Path string
	Line int
	Want string
	Got  Kind
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: expected %s, found %s%s", displayPath(e.Path), e.Want, e.Got, atLine(e.Line))
}

func (e *ShapeError) Is(target error) bool {
	return target == ErrShape
}

// MissingFieldError reports a required key absent from a mapping.
type MissingFieldError struct {
	// Path of the mapping that should have contained Field.
	Path  string
	Field string
	Line  int
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing required field %q%s", displayPath(e.Path), e.Field, atLine(e.Line))
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// AliasError reports an alias that can't be expanded: a cycle, or a document
// that grows past the size limit once expanded.
type AliasError struct {
	Path   string
	Line   int
	Reason string
}

func (e *AliasError) Error() string {
	return fmt.Sprintf("%s: %s%s", displayPath(e.Path), e.Reason, atLine(e.Line))
}

func (e *AliasError) Is(target error) bool {
	return target == ErrAlias
}

func displayPath(p string) string {
	if p == "" {
		return "<root>"
	}
	return p
}

func atLine(line int) string {
	if line <= 0 {
		return ""
	}
	return fmt.Sprintf(" (line %d)", line)
}
