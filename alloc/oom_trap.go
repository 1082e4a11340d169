//go:build nesdie_no_oom_handler

package alloc

import (
	"errors"

	"github.com/austinabell/nesdie/abort"
)

// OOMHandlerEnabled reports whether allocation failures are returned to the
// caller as *OutOfMemoryError.
const OOMHandlerEnabled = false

// outOfMemory traps on the spot. Without a handler there is no message to
// build and nothing to return to.
func outOfMemory(err error) error {
	if errors.Is(err, ErrOutOfMemory) {
		abort.Trap()
	}
	return err
}
