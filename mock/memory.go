package mock

import (
	"unsafe"

	"github.com/austinabell/nesdie/vm"
)

// nativeMemory addresses the process's own memory. Contract code running
// natively passes real pointers, pinned by sys.Ptr for the duration of the
// call.
type nativeMemory struct{}

func (nativeMemory) Read(ptr, n uint64) ([]byte, error) {
	if ptr == 0 {
		return nil, &vm.HostError{Kind: vm.MemoryAccessViolation, Message: "null pointer"}
	}
	//nolint:govet,gosec // addresses come from sys.Ptr on pinned slices
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), n)
	out := make([]byte, n)
	copy(out, src)
	return out, nil
}

func (nativeMemory) Write(ptr uint64, data []byte) error {
	if ptr == 0 {
		return &vm.HostError{Kind: vm.MemoryAccessViolation, Message: "null pointer"}
	}
	//nolint:govet,gosec // addresses come from sys.Ptr on pinned slices
	dst := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), len(data))
	copy(dst, data)
	return nil
}
