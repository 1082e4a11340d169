package main

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/austinabell/nesdie/state"
	"github.com/austinabell/nesdie/types"
)

func newStateCmd(a *app) *cobra.Command {
	var account string
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect contract storage.",
	}
	cmd.PersistentFlags().StringVar(&account, "account", "contract.test", "contract account")

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the raw value stored under key.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openState()
			if err != nil {
				return err
			}
			defer db.Close()

			v, ok, err := state.Prefixed(db, types.AccountID(account)).Get([]byte(args[0]))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("key %q not found for %s", args[0], account)
			}
			fmt.Fprintln(cmd.OutOrStdout(), printable(v))
			return nil
		},
	}

	keys := &cobra.Command{
		Use:   "keys",
		Short: "List the keys an account has stored.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openState()
			if err != nil {
				return err
			}
			defer db.Close()

			prefix := state.AccountPrefix(types.AccountID(account))
			all, err := db.Keys(prefix)
			if err != nil {
				return err
			}
			for _, k := range all {
				fmt.Fprintln(cmd.OutOrStdout(), printable([]byte(strings.TrimPrefix(k, string(prefix)))))
			}
			return nil
		},
	}

	usage := &cobra.Command{
		Use:   "usage",
		Short: "Print the storage bytes an account is charged for.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openState()
			if err != nil {
				return err
			}
			defer db.Close()

			n, _, err := state.LoadUsage(db, types.AccountID(account))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}

	cmd.AddCommand(get, keys, usage)
	return cmd
}

// printable returns UTF-8 values as text and anything else as 0x-hex.
func printable(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return "0x" + hex.EncodeToString(b)
}
