package extensions

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/tilt-dev/dockerci/internal/ciconfig"
)

var ErrUnknownExtension = errors.New("unknown extension")

type PluginConstructor func(options ciconfig.Value) (Plugin, error)
type NotifierConstructor func(options ciconfig.Value) (Notifier, error)

// Registry is a Factory over named constructors.
type Registry struct {
	plugins   map[string]PluginConstructor
	notifiers map[string]NotifierConstructor
}

var _ Factory = &Registry{}

func NewRegistry() *Registry {
	return &Registry{
		plugins:   make(map[string]PluginConstructor),
		notifiers: make(map[string]NotifierConstructor),
	}
}

// DefaultRegistry knows the built-in extensions.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterPlugin(logPluginName, newLogPlugin)
	r.RegisterNotifier(logNotifierName, newLogNotifier)
	return r
}

func (r *Registry) RegisterPlugin(name string, ctor PluginConstructor) {
	r.plugins[name] = ctor
}

func (r *Registry) RegisterNotifier(name string, ctor NotifierConstructor) {
	r.notifiers[name] = ctor
}

func (r *Registry) CreatePlugins(raw []interface{}) ([]Plugin, error) {
	res := make([]Plugin, 0, len(raw))
	for i, entry := range raw {
		name, opts, err := parseEntry(entry, fmt.Sprintf("plugins[%d]", i))
		if err != nil {
			return nil, err
		}
		ctor, ok := r.plugins[name]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownExtension, "plugins[%d]: no plugin named %q (known: %v)", i, name, r.pluginNames())
		}
		p, err := ctor(opts)
		if err != nil {
			return nil, constructorError(err, fmt.Sprintf("plugins[%d]", i), name)
		}
		res = append(res, p)
	}
	return res, nil
}

func (r *Registry) CreateNotifiers(raw []interface{}) ([]Notifier, error) {
	res := make([]Notifier, 0, len(raw))
	for i, entry := range raw {
		name, opts, err := parseEntry(entry, fmt.Sprintf("notifications[%d]", i))
		if err != nil {
			return nil, err
		}
		ctor, ok := r.notifiers[name]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownExtension, "notifications[%d]: no notifier named %q (known: %v)", i, name, r.notifierNames())
		}
		n, err := ctor(opts)
		if err != nil {
			return nil, constructorError(err, fmt.Sprintf("notifications[%d]", i), name)
		}
		res = append(res, n)
	}
	return res, nil
}

// constructorError names the entry an extension failed to build from.
// Configuration errors already carry the path of the bad option.
func constructorError(err error, path, name string) error {
	if errors.Is(err, ciconfig.ErrShape) || errors.Is(err, ciconfig.ErrMissingField) {
		return err
	}
	return errors.Wrapf(err, "%s: %s", path, name)
}

// parseEntry splits `name` or `{name: options}` into its parts. The options
// are located under path, e.g. `notifications[0].log`.
func parseEntry(entry interface{}, path string) (string, ciconfig.Value, error) {
	v, err := ciconfig.FromInterfaceAt(entry, path)
	if err != nil {
		return "", ciconfig.Value{}, errors.Wrap(err, path)
	}
	switch {
	case v.IsScalar():
		name, _ := v.AsString()
		return name, ciconfig.Value{}, nil
	case v.IsMapping() && len(v.Keys()) == 1:
		name := v.Keys()[0]
		return name, v.Get(name), nil
	}
	return "", ciconfig.Value{}, &ciconfig.ShapeError{Path: path, Want: "name or single-key mapping", Got: v.Kind()}
}

func (r *Registry) pluginNames() []string {
	var names []string
	for k := range r.plugins {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) notifierNames() []string {
	var names []string
	for k := range r.notifiers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
