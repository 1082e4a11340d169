package host

import (
	"fmt"
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/austinabell/nesdie/vm"
)

// memory adapts an instance's linear memory to vm.Memory.
type memory struct {
	mem api.Memory
}

var _ vm.Memory = memory{}

func (m memory) Read(ptr, n uint64) ([]byte, error) {
	if m.mem == nil || ptr > math.MaxUint32 || n > math.MaxUint32 {
		return nil, violation(ptr, n)
	}
	b, ok := m.mem.Read(uint32(ptr), uint32(n))
	if !ok {
		return nil, violation(ptr, n)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m memory) Write(ptr uint64, data []byte) error {
	if m.mem == nil || ptr > math.MaxUint32 || !m.mem.Write(uint32(ptr), data) {
		return violation(ptr, uint64(len(data)))
	}
	return nil
}

func violation(ptr, n uint64) error {
	return &vm.HostError{Kind: vm.MemoryAccessViolation, Message: fmt.Sprintf("access [%d, %d+%d) outside linear memory", ptr, ptr, n)}
}
