package vm

import (
	"math/bits"

	"github.com/austinabell/nesdie/types"
)

// GasConfig prices host imports. Execution inside the module is not metered;
// gas is charged when the module crosses into the host.
type GasConfig struct {
	Base types.Gas `mapstructure:"base"`

	ReadMemoryByte    types.Gas `mapstructure:"read_memory_byte"`
	WriteMemoryByte   types.Gas `mapstructure:"write_memory_byte"`
	ReadRegisterByte  types.Gas `mapstructure:"read_register_byte"`
	WriteRegisterByte types.Gas `mapstructure:"write_register_byte"`

	StorageWriteBase      types.Gas `mapstructure:"storage_write_base"`
	StorageWriteKeyByte   types.Gas `mapstructure:"storage_write_key_byte"`
	StorageWriteValueByte types.Gas `mapstructure:"storage_write_value_byte"`
	StorageReadBase       types.Gas `mapstructure:"storage_read_base"`
	StorageReadKeyByte    types.Gas `mapstructure:"storage_read_key_byte"`
	StorageReadValueByte  types.Gas `mapstructure:"storage_read_value_byte"`
	StorageRemoveBase     types.Gas `mapstructure:"storage_remove_base"`
	StorageHasKeyBase     types.Gas `mapstructure:"storage_has_key_base"`

	LogBase types.Gas `mapstructure:"log_base"`
	LogByte types.Gas `mapstructure:"log_byte"`

	HashBase types.Gas `mapstructure:"hash_base"`
	HashByte types.Gas `mapstructure:"hash_byte"`

	PromiseBase types.Gas `mapstructure:"promise_base"`
	ActionBase  types.Gas `mapstructure:"action_base"`
}

// DefaultGasConfig follows the host fee schedule contracts are priced against.
var DefaultGasConfig = GasConfig{
	Base: 264_768_111,

	ReadMemoryByte:    3_801_333,
	WriteMemoryByte:   2_723_772,
	ReadRegisterByte:  98_562,
	WriteRegisterByte: 3_801_564,

	StorageWriteBase:      64_196_736_000,
	StorageWriteKeyByte:   70_482_867,
	StorageWriteValueByte: 31_018_539,
	StorageReadBase:       56_356_845_750,
	StorageReadKeyByte:    30_952_533,
	StorageReadValueByte:  5_611_005,
	StorageRemoveBase:     53_473_030_500,
	StorageHasKeyBase:     54_039_896_625,

	LogBase: 3_543_313_050,
	LogByte: 13_198_791,

	HashBase: 4_540_970_250,
	HashByte: 24_117_351,

	PromiseBase: 1_500_000_000,
	ActionBase:  100_000_000_000,
}

// FreeGasConfig charges nothing. Useful for tests that do not exercise
// metering.
var FreeGasConfig = GasConfig{}

type gasCounter struct {
	used    types.Gas
	prepaid types.Gas
}

// burn adds amount to the used gas, failing once the prepaid gas is spent.
// The counter saturates at the prepaid amount on failure.
func (g *gasCounter) burn(amount types.Gas) error {
	sum, carry := bits.Add64(g.used, amount, 0)
	if carry != 0 || sum > g.prepaid {
		g.used = g.prepaid
		return hostErr(GasExceeded, "exceeded the prepaid gas of %d", g.prepaid)
	}
	g.used = sum
	return nil
}

// perByte returns price*n, failing on overflow.
func perByte(price types.Gas, n uint64) (types.Gas, error) {
	hi, lo := bits.Mul64(price, n)
	if hi != 0 {
		return 0, hostErr(IntegerOverflow, "gas cost overflow")
	}
	return lo, nil
}
