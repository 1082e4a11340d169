// Package abort is the single path by which a call terminates abnormally.
//
// Every function here ends the call through a host trap. Nothing after an
// abort executes, and the host discards the storage writes, logs-derived
// state and promises the call produced.
package abort

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/austinabell/nesdie/sys"
)

// Abort terminates the call. When messages are enabled the sanitized msg is
// passed to the host's panic_utf8 import; otherwise the trap carries no
// payload.
func Abort(msg string) {
	if !MessagesEnabled {
		Trap()
		return
	}
	b := []byte(Sanitize(msg))
	sys.PanicUTF8(uint64(len(b)), sys.Ptr(b))
	panic(unreachable)
}

// Trap terminates the call without a message.
func Trap() {
	sys.Panic()
	panic(unreachable)
}

// Error aborts with err's message.
func Error(err error) {
	Abort(err.Error())
}

// Recover turns a Go panic raised during the call into an abort. It must be
// deferred directly. Host traps propagate untouched.
func Recover() {
	r := recover()
	if r == nil {
		return
	}
	if sys.IsTrap(r) {
		panic(r)
	}
	if !MessagesEnabled {
		Trap()
		return
	}
	Abort(PanicMessage(r))
}

// PanicMessage describes a recovered panic value as
// "panicked at file:line: value". It must be called from the deferred
// function that recovered r.
func PanicMessage(r any) string {
	if site := panicSite(); site != "" {
		return fmt.Sprintf("panicked at %s: %v", site, r)
	}
	return fmt.Sprintf("panicked: %v", r)
}

// Sanitize strips directory components from every path-like token in msg,
// so "/home/ci/src/store.go:12" becomes "store.go:12". Messages must not leak
// the layout of the machine that built the module. A token is path-like when
// it is absolute or names a Go source position; "a/b" in prose is kept.
func Sanitize(msg string) string {
	if !strings.Contains(msg, "/") {
		return msg
	}
	var sb strings.Builder
	sb.Grow(len(msg))
	for len(msg) > 0 {
		i := strings.IndexAny(msg, " \t\n")
		if i < 0 {
			i = len(msg)
		}
		token := msg[:i]
		if pathLike(token) {
			token = token[strings.LastIndexByte(token, '/')+1:]
		}
		sb.WriteString(token)
		if i < len(msg) {
			sb.WriteByte(msg[i])
			i++
		}
		msg = msg[i:]
	}
	return sb.String()
}

func pathLike(token string) bool {
	if !strings.Contains(token, "/") {
		return false
	}
	return strings.HasPrefix(token, "/") || strings.Contains(token, ".go:") || strings.HasSuffix(token, ".go")
}

// panicSite returns file:line of the first frame below runtime.gopanic that
// is not part of the runtime.
func panicSite() string {
	var pcs [32]uintptr
	n := runtime.Callers(2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	panicking := false
	for {
		f, more := frames.Next()
		switch {
		case f.Function == "runtime.gopanic":
			panicking = true
		case panicking && !isRuntime(f.Function) && f.File != "":
			return fmt.Sprintf("%s:%d", f.File, f.Line)
		}
		if !more {
			return ""
		}
	}
}

func isRuntime(fn string) bool {
	return strings.HasPrefix(fn, "runtime.") || strings.HasPrefix(fn, "internal/runtime/")
}

type unreachableError struct{}

func (unreachableError) Error() string { return "abort: host returned from a trap" }

var unreachable error = unreachableError{}
