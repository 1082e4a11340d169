package vm

import "log/slog"

// Limits bounds what a single call may accumulate on the host.
type Limits struct {
	MaxLogs           int    `mapstructure:"max_logs"`
	MaxTotalLogLength uint64 `mapstructure:"max_total_log_length"`
	MaxRegisters      int    `mapstructure:"max_registers"`
	MaxRegisterSize   uint64 `mapstructure:"max_register_size"`
	MaxKeyLength      uint64 `mapstructure:"max_key_length"`
	MaxValueLength    uint64 `mapstructure:"max_value_length"`
}

// DefaultLimits are the limits applied when none are configured.
var DefaultLimits = Limits{
	MaxLogs:           100,
	MaxTotalLogLength: 16 * 1024,
	MaxRegisters:      100,
	MaxRegisterSize:   100 << 20,
	MaxKeyLength:      2048,
	MaxValueLength:    4 << 20,
}

// Option configures a Logic.
type Option func(*Logic)

// WithGasConfig sets the import prices.
func WithGasConfig(cfg GasConfig) Option {
	return func(l *Logic) {
		l.gasCfg = cfg
	}
}

// WithLimits sets the per-call limits.
func WithLimits(limits Limits) Option {
	return func(l *Logic) {
		l.limits = limits
	}
}

// WithLogger sets the logger used for host-side diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Logic) {
		l.logger = logger
	}
}
