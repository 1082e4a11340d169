package types

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
)

// BalanceSize is the width of a Balance on the wire.
const BalanceSize = 16

// ErrBalanceOverflow is returned by checked Balance arithmetic.
var ErrBalanceOverflow = errors.New("balance overflow")

// Balance is an unsigned 128-bit token amount.
type Balance struct {
	Hi uint64
	Lo uint64
}

// NewBalance returns a Balance holding v.
func NewBalance(v uint64) Balance {
	return Balance{Lo: v}
}

// BalanceFromLE decodes the 16-byte little-endian form used by the host.
func BalanceFromLE(b [BalanceSize]byte) Balance {
	return Balance{
		Lo: binary.LittleEndian.Uint64(b[:8]),
		Hi: binary.LittleEndian.Uint64(b[8:]),
	}
}

// LE encodes the balance in the host's little-endian form.
func (b Balance) LE() [BalanceSize]byte {
	var out [BalanceSize]byte
	binary.LittleEndian.PutUint64(out[:8], b.Lo)
	binary.LittleEndian.PutUint64(out[8:], b.Hi)
	return out
}

// IsZero reports whether the balance is zero.
func (b Balance) IsZero() bool {
	return b.Hi == 0 && b.Lo == 0
}

// Cmp returns -1, 0 or +1 depending on whether b is less than, equal to or
// greater than o.
func (b Balance) Cmp(o Balance) int {
	switch {
	case b.Hi < o.Hi:
		return -1
	case b.Hi > o.Hi:
		return 1
	case b.Lo < o.Lo:
		return -1
	case b.Lo > o.Lo:
		return 1
	}
	return 0
}

// Add returns b+o or ErrBalanceOverflow.
func (b Balance) Add(o Balance) (Balance, error) {
	lo, carry := bits.Add64(b.Lo, o.Lo, 0)
	hi, carry := bits.Add64(b.Hi, o.Hi, carry)
	if carry != 0 {
		return Balance{}, ErrBalanceOverflow
	}
	return Balance{Hi: hi, Lo: lo}, nil
}

// Sub returns b-o or ErrBalanceOverflow when o is larger than b.
func (b Balance) Sub(o Balance) (Balance, error) {
	lo, borrow := bits.Sub64(b.Lo, o.Lo, 0)
	hi, borrow := bits.Sub64(b.Hi, o.Hi, borrow)
	if borrow != 0 {
		return Balance{}, ErrBalanceOverflow
	}
	return Balance{Hi: hi, Lo: lo}, nil
}

// String formats the balance in base 10.
func (b Balance) String() string {
	if b.IsZero() {
		return "0"
	}
	var buf [40]byte
	i := len(buf)
	hi, lo := b.Hi, b.Lo
	for hi != 0 || lo != 0 {
		var rem uint64
		hi, rem = bits.Div64(0, hi, 10)
		lo, rem = bits.Div64(rem, lo, 10)
		i--
		buf[i] = byte('0' + rem)
	}
	return string(buf[i:])
}

// ParseBalance parses a base 10 string into a Balance.
func ParseBalance(s string) (Balance, error) {
	if s == "" {
		return Balance{}, fmt.Errorf("parse balance: empty string")
	}
	var hi, lo uint64
	for _, c := range []byte(s) {
		if c < '0' || c > '9' {
			return Balance{}, fmt.Errorf("parse balance %q: invalid digit %q", s, c)
		}
		// (hi, lo) = (hi, lo) * 10 + digit
		hiMul, hiLo := bits.Mul64(hi, 10)
		loHi, loLo := bits.Mul64(lo, 10)
		if hiMul != 0 {
			return Balance{}, fmt.Errorf("parse balance %q: %w", s, ErrBalanceOverflow)
		}
		nhi, carry := bits.Add64(hiLo, loHi, 0)
		if carry != 0 {
			return Balance{}, fmt.Errorf("parse balance %q: %w", s, ErrBalanceOverflow)
		}
		nlo, carry := bits.Add64(loLo, uint64(c-'0'), 0)
		nhi, carry = bits.Add64(nhi, 0, carry)
		if carry != 0 {
			return Balance{}, fmt.Errorf("parse balance %q: %w", s, ErrBalanceOverflow)
		}
		hi, lo = nhi, nlo
	}
	return Balance{Hi: hi, Lo: lo}, nil
}

// MarshalJSON encodes the balance as a decimal string, since JSON numbers
// cannot carry 128 bits.
func (b Balance) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.String() + `"`), nil
}

// UnmarshalJSON accepts the decimal string form.
func (b *Balance) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("balance must be a JSON string, got %s", data)
	}
	v, err := ParseBalance(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*b = v
	return nil
}
