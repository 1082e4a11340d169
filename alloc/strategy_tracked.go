//go:build nesdie_tracked_alloc

package alloc

func newStrategy(cfg config) Allocator {
	return NewTracked(uint64(cfg.arenaSize))
}
