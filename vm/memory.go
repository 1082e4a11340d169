package vm

// Memory is the module's linear memory as seen by the host.
type Memory interface {
	// Read copies n bytes starting at ptr.
	Read(ptr, n uint64) ([]byte, error)
	// Write copies data to ptr.
	Write(ptr uint64, data []byte) error
}

// LinearMemory is a bounds-checked Memory over a byte slice.
type LinearMemory struct {
	buf []byte
}

// NewLinearMemory returns a zeroed memory of size bytes.
func NewLinearMemory(size int) *LinearMemory {
	return &LinearMemory{buf: make([]byte, size)}
}

func (m *LinearMemory) Read(ptr, n uint64) ([]byte, error) {
	if err := m.check(ptr, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, m.buf[ptr:ptr+n])
	return out, nil
}

func (m *LinearMemory) Write(ptr uint64, data []byte) error {
	if err := m.check(ptr, uint64(len(data))); err != nil {
		return err
	}
	copy(m.buf[ptr:], data)
	return nil
}

// Bytes exposes the backing slice.
func (m *LinearMemory) Bytes() []byte { return m.buf }

func (m *LinearMemory) check(ptr, n uint64) error {
	end := ptr + n
	if end < ptr || end > uint64(len(m.buf)) {
		return hostErr(MemoryAccessViolation, "access [%d, %d+%d) outside memory of %d bytes", ptr, ptr, n, len(m.buf))
	}
	return nil
}
