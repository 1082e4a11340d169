package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/austinabell/nesdie/host"
	"github.com/austinabell/nesdie/state"
	"github.com/austinabell/nesdie/vm"
)

// envPrefix namespaces environment overrides, e.g. NESDIE_STATE.
const envPrefix = "NESDIE"

// Config is the CLI configuration, read from flags, NESDIE_* variables and
// an optional config file, in that order of precedence.
type Config struct {
	State            string               `mapstructure:"state"`
	LogLevel         string               `mapstructure:"log_level"`
	MemoryLimitPages uint32               `mapstructure:"memory_limit_pages"`
	LevelDB          state.LevelDBOptions `mapstructure:"leveldb"`
	Gas              vm.GasConfig         `mapstructure:"gas"`
	Limits           vm.Limits            `mapstructure:"limits"`
}

func defaultConfig() Config {
	return Config{
		State:            ".nesdie",
		LogLevel:         "warn",
		MemoryLimitPages: host.DefaultMemoryLimitPages,
		LevelDB:          state.DefaultLevelDBOptions,
		Gas:              vm.DefaultGasConfig,
		Limits:           vm.DefaultLimits,
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	d := defaultConfig()
	v.SetDefault("state", d.State)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("memory_limit_pages", d.MemoryLimitPages)
	return v
}

// loadConfig merges the config file, if any, into the defaults.
func loadConfig(v *viper.Viper, file string) (Config, error) {
	cfg := defaultConfig()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return cfg, fmt.Errorf("failed to read config %s: %w", file, err)
			}
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.State == "" {
		return cfg, errors.New("state directory must be set")
	}
	return cfg, nil
}

func (c Config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
