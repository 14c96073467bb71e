//go:build !libmpv

package mpv

import (
	"fmt"

	kerrors "github.com/dalimagaadi/kord-app/internal/errors"
)

// Available reports whether this binary can play through libmpv.
const Available = false

// New always fails: this binary was built without libmpv.
func New(Options) (Engine, error) {
	return nil, fmt.Errorf("%w: libmpv backend is not enabled; build with -tags libmpv", kerrors.ErrBackendDisabled)
}
