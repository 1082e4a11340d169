package host

// Minimal binary encoder for the test contract. Only the sections and
// instructions the tests use are supported.

const (
	opUnreachable = 0x00
	opEnd         = 0x0b
	opCall        = 0x10
	opDrop        = 0x1a
	opI32Const    = 0x41
	opI64Const    = 0x42
	valI64        = 0x7e
)

func uleb(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func name(s string) []byte {
	return append(uleb(uint64(len(s))), s...)
}

func vec(items ...[]byte) []byte {
	out := uleb(uint64(len(items)))
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

func section(id byte, body []byte) []byte {
	return append(append([]byte{id}, uleb(uint64(len(body)))...), body...)
}

func funcType(params, results int) []byte {
	p := make([][]byte, params)
	for i := range p {
		p[i] = []byte{valI64}
	}
	r := make([][]byte, results)
	for i := range r {
		r[i] = []byte{valI64}
	}
	return append(append([]byte{0x60}, vec(p...)...), vec(r...)...)
}

func i64(v int64) []byte { return append([]byte{opI64Const}, sleb(v)...) }

func call(idx uint64) []byte { return append([]byte{opCall}, uleb(idx)...) }

func body(instrs ...[]byte) []byte {
	code := []byte{0x00} // no locals
	for _, in := range instrs {
		code = append(code, in...)
	}
	code = append(code, opEnd)
	return append(uleb(uint64(len(code))), code...)
}

// Imported function indices of testContract.
const (
	fnValueReturn = iota
	fnLogUTF8
	fnStorageWrite
	fnPanicUTF8
	numImports
)

// testContract exports:
//
//	hello: logs and returns "hello"
//	store: writes "key" -> "hello"
//	fail:  panic_utf8("boom")
//	trap:  unreachable
//	oob:   value_return from outside memory
func testContract() []byte {
	const (
		tPair = iota
		tStorageWrite
		tExport
	)
	exports := []struct {
		name string
		code []byte
	}{
		{"hello", body(i64(5), i64(0), call(fnLogUTF8), i64(5), i64(0), call(fnValueReturn))},
		{"store", body(i64(3), i64(8), i64(5), i64(0), i64(0), call(fnStorageWrite), []byte{opDrop})},
		{"fail", body(i64(4), i64(16), call(fnPanicUTF8))},
		{"trap", body([]byte{opUnreachable})},
		{"oob", body(i64(10), i64(70000), call(fnValueReturn))},
	}

	imp := func(field string, typ uint64) []byte {
		out := append(name("env"), name(field)...)
		return append(append(out, 0x00), uleb(typ)...)
	}

	var funcs, exps, codes [][]byte
	for i, e := range exports {
		funcs = append(funcs, uleb(tExport))
		exps = append(exps, append(append(name(e.name), 0x00), uleb(uint64(numImports+i))...))
		codes = append(codes, e.code)
	}
	exps = append(exps, append(append(name("memory"), 0x02), uleb(0)...))

	data := func(offset int64, s string) []byte {
		out := []byte{0x00, opI32Const}
		out = append(out, sleb(offset)...)
		out = append(out, opEnd)
		return append(out, name(s)...)
	}

	var mod []byte
	mod = append(mod, 0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00)
	mod = append(mod, section(1, vec(funcType(2, 0), funcType(5, 1), funcType(0, 0)))...)
	mod = append(mod, section(2, vec(
		imp("value_return", tPair),
		imp("log_utf8", tPair),
		imp("storage_write", tStorageWrite),
		imp("panic_utf8", tPair),
	))...)
	mod = append(mod, section(3, vec(funcs...))...)
	mod = append(mod, section(5, vec([]byte{0x00, 0x01}))...)
	mod = append(mod, section(7, vec(exps...))...)
	mod = append(mod, section(10, vec(codes...))...)
	mod = append(mod, section(11, vec(data(0, "hello"), data(8, "key"), data(16, "boom")))...)
	return mod
}
