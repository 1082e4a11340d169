package host

import (
	"io"

	"golang.org/x/crypto/sha3"

	"github.com/austinabell/nesdie/vm"
)

// clock is the instance's view of time: walltime is pinned to the block
// timestamp and the monotonic clock advances one millisecond per reading.
type clock struct {
	blockNanos int64
	ticks      int64
}

func newClock(ctx *vm.Context) *clock {
	return &clock{blockNanos: int64(ctx.BlockTimestamp)}
}

func (c *clock) walltime() (sec int64, nsec int32) {
	return c.blockNanos / 1e9, int32(c.blockNanos % 1e9)
}

func (c *clock) nanotime() int64 {
	c.ticks += 1e6
	return c.ticks
}

func nosleep(int64) {}

// randSource expands the call's random seed with SHAKE256, so WASI
// random_get is reproducible for a given block.
func randSource(ctx *vm.Context) io.Reader {
	h := sha3.NewShake256()
	h.Write([]byte("nesdie/wasi-random"))
	h.Write(ctx.RandomSeed)
	h.Write([]byte(ctx.CurrentAccountID))
	return h
}
