//go:build wasip1

package log

import "log/slog"

// Inside the sandbox the default logger writes to the host.
func init() {
	slog.SetDefault(New())
}
