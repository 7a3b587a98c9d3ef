package build

import (
	"github.com/tilt-dev/dockerci/internal/ciconfig"
)

// commandSpec is the `command` entry: a flat list, or a mapping from axis
// value to a command or list of commands.
type commandSpec struct {
	flat []string

	keys   []string
	matrix map[string][]string
}

func (s commandSpec) parallel() bool {
	return s.matrix != nil
}

func parseCommandSpec(doc ciconfig.Value) (commandSpec, error) {
	v := doc.Get("command")
	switch v.Kind() {
	case ciconfig.KindNull:
		return commandSpec{}, &ciconfig.MissingFieldError{Path: doc.Path(), Field: "command", Line: doc.Line()}

	case ciconfig.KindSequence:
		flat, err := v.AsStringList()
		if err != nil {
			return commandSpec{}, err
		}
		return commandSpec{flat: flat}, nil

	case ciconfig.KindMapping:
		keys := v.Keys()
		if len(keys) == 0 {
			return commandSpec{}, &ciconfig.ShapeError{Path: v.Path(), Line: v.Line(), Want: "at least one command", Got: ciconfig.KindMapping}
		}
		spec := commandSpec{keys: keys, matrix: make(map[string][]string, len(keys))}
		for _, k := range keys {
			cmds, err := scalarOrList(v.Get(k))
			if err != nil {
				return commandSpec{}, err
			}
			spec.matrix[k] = cmds
		}
		return spec, nil
	}

	// A lone string in a flat build is ambiguous with a one-key matrix and
	// is reported rather than guessed at.
	return commandSpec{}, &ciconfig.ShapeError{Path: v.Path(), Line: v.Line(), Want: "list of commands or mapping of commands", Got: v.Kind()}
}

// A matrix entry is either a single command or a list of them.
func scalarOrList(v ciconfig.Value) ([]string, error) {
	if v.IsScalar() {
		s, err := v.AsString()
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
	return v.AsStringList()
}
