//go:build !nesdie_no_abort_message

package abort

// MessagesEnabled reports whether aborts carry a diagnostic message. Build
// with the nesdie_no_abort_message tag to drop them.
const MessagesEnabled = true
