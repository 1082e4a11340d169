//go:build nesdie_no_abort_message

package abort

// MessagesEnabled reports whether aborts carry a diagnostic message.
const MessagesEnabled = false
