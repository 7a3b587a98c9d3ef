package links

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrMalformedIdentity matches every *MalformedIdentityError.
var ErrMalformedIdentity = errors.New("malformed service identity")

// MalformedIdentityError reports a link whose image can't be turned into a
// usable, unambiguous container name.
type MalformedIdentityError struct {
	Path    string
	Image   string
	BuildID string
	Reason  string
}

func (e *MalformedIdentityError) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "link"
	}
	return fmt.Sprintf("%s: invalid service image %q: %s", loc, e.Image, e.Reason)
}

func (e *MalformedIdentityError) Is(target error) bool {
	return target == ErrMalformedIdentity
}
