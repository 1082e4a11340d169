//go:build !nesdie_no_oom_handler

package alloc

// OOMHandlerEnabled reports whether allocation failures are returned to the
// caller as *OutOfMemoryError.
const OOMHandlerEnabled = true

func outOfMemory(err error) error {
	return err
}
