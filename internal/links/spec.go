package links

import (
	"github.com/tilt-dev/dockerci/internal/ciconfig"
)

// Spec is one linked service container.
type Spec struct {
	// Image to run. Required.
	Image string
	// Name is the alias the service is reachable under. Derived from
	// Image when empty.
	Name string
	// RunParams are extra `docker run` options, passed through verbatim.
	RunParams string
	// Command overrides the image's default command. Run under `sh -cx`.
	Command string
	// Links are services this service itself depends on.
	Links []Spec

	// Path of the spec in the configuration document, for error messages.
	Path string
}

// ParseSpecs decodes a `links` list. A null value is an empty list.
func ParseSpecs(v ciconfig.Value) ([]Spec, error) {
	if v.IsNull() {
		return nil, nil
	}
	items, err := v.AsSequence()
	if err != nil {
		return nil, err
	}

	specs := make([]Spec, 0, len(items))
	for _, item := range items {
		s, err := parseSpec(item)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}

func parseSpec(v ciconfig.Value) (Spec, error) {
	image, err := v.String("image")
	if err != nil {
		return Spec{}, err
	}
	s := Spec{Image: image, Path: v.Path()}

	if s.Name, _, err = v.OptionalString("name"); err != nil {
		return Spec{}, err
	}
	if s.RunParams, _, err = v.OptionalString("run_params"); err != nil {
		return Spec{}, err
	}
	if s.Command, _, err = v.OptionalString("command"); err != nil {
		return Spec{}, err
	}
	if s.Links, err = ParseSpecs(v.Get("links")); err != nil {
		return Spec{}, err
	}
	return s, nil
}

// Flatten lists every service in the tree in the order they start:
// a service's own links come before it.
func Flatten(specs []Spec) []Spec {
	var res []Spec
	for _, s := range specs {
		res = append(res, Flatten(s.Links)...)
		res = append(res, s)
	}
	return res
}
