package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/austinabell/nesdie/host"
	"github.com/austinabell/nesdie/types"
	"github.com/austinabell/nesdie/vm"
)

type callFlags struct {
	wasm        string
	method      string
	args        string
	account     string
	signer      string
	predecessor string
	deposit     string
	gas         uint64
	view        bool
	blockIndex  uint64
	timestamp   uint64
}

// callResult is the printed form of a vm.Outcome.
type callResult struct {
	Return   *string      `json:"return,omitempty"`
	Logs     []string     `json:"logs"`
	Receipts []vm.Receipt `json:"receipts,omitempty"`
	GasUsed  types.Gas    `json:"gas_used"`
	Error    string       `json:"error,omitempty"`
}

func newCallCmd(a *app) *cobra.Command {
	var f callFlags
	cmd := &cobra.Command{
		Use:     "call",
		Short:   "Call a method of a compiled contract.",
		Example: `nesdie call --wasm kvstore.wasm --method set --args '{"key":"k","value":"v"}'`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.call(cmd.Context(), f)
			if err != nil {
				return err
			}
			res := callResult{
				Logs:     out.Logs,
				Receipts: out.Receipts,
				GasUsed:  out.GasUsed,
			}
			if out.ReturnData != nil {
				s := string(out.ReturnData)
				res.Return = &s
			}
			if out.Err != nil {
				res.Error = out.Err.Error()
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if out.Aborted() {
				return fmt.Errorf("call aborted: %s", out.Err.Kind)
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.wasm, "wasm", "", "compiled contract")
	fl.StringVar(&f.method, "method", "", "exported method to call")
	fl.StringVar(&f.args, "args", "", "call input, passed verbatim")
	fl.StringVar(&f.account, "account", "contract.test", "account the contract runs as")
	fl.StringVar(&f.signer, "signer", "signer.test", "signer account")
	fl.StringVar(&f.predecessor, "predecessor", "", "predecessor account (default: signer)")
	fl.StringVar(&f.deposit, "deposit", "0", "attached deposit in yocto units")
	fl.Uint64Var(&f.gas, "gas", 300_000_000_000_000, "prepaid gas")
	fl.BoolVar(&f.view, "view", false, "run as a view call")
	fl.Uint64Var(&f.blockIndex, "block-index", 1, "block height")
	fl.Uint64Var(&f.timestamp, "block-timestamp", 0, "block timestamp in nanoseconds")
	_ = cmd.MarkFlagRequired("wasm")
	_ = cmd.MarkFlagRequired("method")
	return cmd
}

func (a *app) call(ctx context.Context, f callFlags) (*vm.Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	vmctx, err := f.context()
	if err != nil {
		return nil, err
	}
	code, err := os.ReadFile(f.wasm)
	if err != nil {
		return nil, fmt.Errorf("failed to read contract: %w", err)
	}

	db, err := a.openState()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	exec, err := host.NewExecutor(ctx,
		host.WithStore(db),
		host.WithMemoryLimitPages(a.cfg.MemoryLimitPages),
		host.WithLogger(a.logger),
		host.WithVMOptions(vm.WithGasConfig(a.cfg.Gas), vm.WithLimits(a.cfg.Limits)),
	)
	if err != nil {
		return nil, err
	}
	defer exec.Close(ctx)

	if err := exec.Deploy(ctx, vmctx.CurrentAccountID, code); err != nil {
		return nil, err
	}
	return exec.Call(ctx, vmctx, f.method)
}

func (f callFlags) context() (*vm.Context, error) {
	deposit, err := types.ParseBalance(f.deposit)
	if err != nil {
		return nil, fmt.Errorf("invalid deposit: %w", err)
	}
	predecessor := f.predecessor
	if predecessor == "" {
		predecessor = f.signer
	}
	return &vm.Context{
		CurrentAccountID:     types.AccountID(f.account),
		SignerAccountID:      types.AccountID(f.signer),
		PredecessorAccountID: types.AccountID(predecessor),
		Input:                []byte(f.args),
		BlockIndex:           f.blockIndex,
		BlockTimestamp:       f.timestamp,
		AttachedDeposit:      deposit,
		PrepaidGas:           f.gas,
		IsView:               f.view,
	}, nil
}
