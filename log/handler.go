// Package log provides a slog handler that writes records to the host's log
// import, one line per record.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"

	"github.com/austinabell/nesdie/abort"
	"github.com/austinabell/nesdie/env"
)

// Handler implements slog.Handler on top of env.LogStr. Records carry no
// timestamp: the host's block time is the only clock a contract may observe.
type Handler struct {
	opts   handlerConfig
	prefix string // pre-rendered attrs from WithAttrs
	group  string
}

// HandlerOption configures the Handler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	level     slog.Leveler
	addSource bool
	emit      func(string)
}

func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level: slog.LevelInfo,
		emit:  env.LogStr,
	}
}

// WithLevel sets the minimum level to report. Filtering happens in the
// module, so suppressed records cost no host call.
func WithLevel(level slog.Leveler) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource adds file:line of the logging call.
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// NewHandler creates a Handler with the given options.
func NewHandler(opts ...HandlerOption) *Handler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Handler{opts: cfg}
}

// New returns a logger writing through a new Handler.
func New(opts ...HandlerOption) *slog.Logger {
	return slog.New(NewHandler(opts...))
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level.Level()
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder
	sb.WriteString(record.Level.String())
	sb.WriteByte(' ')
	sb.WriteString(record.Message)

	if h.opts.addSource && record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		f, _ := frames.Next()
		sb.WriteString(" source=")
		sb.WriteString(abort.Sanitize(fmt.Sprintf("%s:%d", f.File, f.Line)))
	}

	sb.WriteString(h.prefix)
	record.Attrs(func(attr slog.Attr) bool {
		writeAttr(&sb, h.group, attr)
		return true
	})

	h.opts.emit(sb.String())
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var sb strings.Builder
	sb.WriteString(h.prefix)
	for _, attr := range attrs {
		writeAttr(&sb, h.group, attr)
	}
	clone := *h
	clone.prefix = sb.String()
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = joinKey(h.group, name)
	return &clone
}

func writeAttr(sb *strings.Builder, group string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		g := group
		if attr.Key != "" {
			g = joinKey(group, attr.Key)
		}
		for _, a := range attr.Value.Group() {
			writeAttr(sb, g, a)
		}
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(joinKey(group, attr.Key))
	sb.WriteByte('=')
	sb.WriteString(formatValue(attr.Value))
}

func joinKey(group, key string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}

func formatValue(v slog.Value) string {
	s := v.String()
	if s == "" || strings.ContainsAny(s, " =\"\n\t") {
		return strconv.Quote(s)
	}
	return s
}
