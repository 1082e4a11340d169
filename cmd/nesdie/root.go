package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/austinabell/nesdie/state"
)

// app is the state shared by subcommands once flags are parsed.
type app struct {
	v      *viper.Viper
	cfg    Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: newViper()}
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "nesdie",
		Short:         "Run nesdie contracts locally.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(a.v, cfgFile)
			if err != nil {
				return err
			}
			level, err := cfg.level()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (yaml, json or toml)")
	flags.String("state", ".nesdie", "state directory")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	_ = a.v.BindPFlag("state", flags.Lookup("state"))
	_ = a.v.BindPFlag("log_level", flags.Lookup("log-level"))

	cmd.AddCommand(newCallCmd(a), newStateCmd(a))
	return cmd
}

func (a *app) openState() (*state.LevelDB, error) {
	opts := a.cfg.LevelDB
	return state.OpenLevelDB(a.cfg.State, &opts)
}
