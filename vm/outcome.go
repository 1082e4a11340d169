package vm

import (
	"context"
	"log/slog"

	"github.com/austinabell/nesdie/state"
	"github.com/austinabell/nesdie/types"
)

// Outcome is the observable result of one call.
type Outcome struct {
	// ReturnData is the last value passed to value_return, nil when the
	// call never returned a value or failed.
	ReturnData []byte `json:"return_data,omitempty"`
	// ReturnPromise is set when the call's result was delegated to a
	// promise.
	ReturnPromise *types.PromiseIndex `json:"return_promise,omitempty"`
	Logs          []string            `json:"logs"`
	Receipts      []Receipt           `json:"receipts,omitempty"`
	GasUsed       types.Gas           `json:"gas_used"`
	StorageUsage  uint64              `json:"storage_usage"`
	// Err is the trap that aborted the call.
	Err *HostError `json:"error,omitempty"`
}

// Aborted reports whether the call failed.
func (o *Outcome) Aborted() bool { return o.Err != nil }

// Finish ends the call. A nil err with no recorded trap commits the staged
// storage writes and keeps the return value and receipts; anything else
// discards them. Logs and gas are reported either way.
func (l *Logic) Finish(err error) *Outcome {
	if err != nil {
		l.record(&err)
	}

	out := &Outcome{
		Logs:         append([]string{}, l.logs...),
		GasUsed:      l.gas.used,
		StorageUsage: l.initialUsage,
	}

	if l.trap == nil {
		if cerr := l.commit(); cerr != nil {
			l.record(&cerr)
		}
	}
	if l.trap != nil {
		l.pending.Discard()
		out.Err = l.trap
		l.logger.DebugContext(context.Background(), "call aborted",
			slog.String("account", string(l.ctx.CurrentAccountID)),
			slog.String("error", l.trap.Error()),
			slog.Uint64("gas_used", out.GasUsed))
		return out
	}

	out.ReturnData = l.returnData
	out.ReturnPromise = l.returnPromise
	out.Receipts = l.receipts
	out.StorageUsage = l.storageUsage
	l.logger.DebugContext(context.Background(), "call finished",
		slog.String("account", string(l.ctx.CurrentAccountID)),
		slog.Int("return_bytes", len(l.returnData)),
		slog.Int("receipts", len(l.receipts)),
		slog.Uint64("gas_used", out.GasUsed))
	return out
}

// commit applies the staged writes together with the account's usage record
// in one batch.
func (l *Logic) commit() error {
	if !l.ctx.IsView && (!l.usageRecorded || l.storageUsage != l.initialUsage) {
		if err := state.SaveUsage(l.pending, l.ctx.CurrentAccountID, l.storageUsage); err != nil {
			return err
		}
	}
	return l.pending.Commit()
}
