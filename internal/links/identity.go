package links

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/docker/distribution/reference"
)

var idSeparators = strings.NewReplacer("/", "_", ":", "_", ".", "_")

// Container names accepted by the docker daemon.
var validContainerName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// ContainerID is the container name of a service image for one build.
//
// `redis:2.8` in build 42 is `redis_2_8_42`. Images that differ only in
// their separators share an id, e.g. `a/b` and `a.b`.
func ContainerID(image, buildID string) string {
	return idSeparators.Replace(image) + "_" + buildID
}

// NameSegment rewrites s into characters a container name may hold, the same
// way ContainerID rewrites an image. `lint/go` becomes `lint_go`.
func NameSegment(s string) string {
	return invalidNameChars.ReplaceAllString(idSeparators.Replace(s), "_")
}

// Alias is the hostname a service is linked under: the explicit name, or the
// last path segment of the image without its tag.
func Alias(s Spec) string {
	if s.Name != "" {
		return s.Name
	}
	parts := strings.Split(s.Image, "/")
	last := parts[len(parts)-1]
	return strings.SplitN(last, ":", 2)[0]
}

// LinkFlag is the value of the `--link` flag for a service.
func LinkFlag(s Spec, buildID string) string {
	return ContainerID(s.Image, buildID) + ":" + Alias(s)
}

// LinkFlags returns one `--link` value per spec, in order.
func LinkFlags(specs []Spec, buildID string) []string {
	res := make([]string, len(specs))
	for i, s := range specs {
		res[i] = LinkFlag(s, buildID)
	}
	return res
}

// Validate checks that every service in the tree has a well-formed image and
// that no two services map to the same container.
func Validate(specs []Spec, buildID string) error {
	seen := make(map[string]Spec)
	for _, s := range Flatten(specs) {
		if err := validateSpec(s, buildID); err != nil {
			return err
		}
		id := ContainerID(s.Image, buildID)
		if prev, ok := seen[id]; ok {
			return &MalformedIdentityError{
				Path:    s.Path,
				Image:   s.Image,
				BuildID: buildID,
				Reason:  fmt.Sprintf("container name %q is already used by %s (%q)", id, displayPath(prev), prev.Image),
			}
		}
		seen[id] = s
	}
	return nil
}

func validateSpec(s Spec, buildID string) error {
	if err := ValidateImage(s.Path, s.Image, buildID); err != nil {
		return err
	}
	if Alias(s) == "" {
		return &MalformedIdentityError{Path: s.Path, Image: s.Image, BuildID: buildID, Reason: "link alias is empty"}
	}
	return nil
}

// ValidateImage checks that image is a docker image reference whose
// container id for buildID is a valid container name.
func ValidateImage(path, image, buildID string) error {
	malformed := func(reason string) error {
		return &MalformedIdentityError{Path: path, Image: image, BuildID: buildID, Reason: reason}
	}
	if strings.TrimSpace(image) == "" {
		return malformed("image is empty")
	}
	if _, err := reference.ParseNormalizedNamed(image); err != nil {
		return malformed(err.Error())
	}
	if id := ContainerID(image, buildID); !validContainerName.MatchString(id) {
		return malformed(fmt.Sprintf("container name %q is not a valid docker container name", id))
	}
	return nil
}

func displayPath(s Spec) string {
	if s.Path == "" {
		return "another link"
	}
	return s.Path
}
