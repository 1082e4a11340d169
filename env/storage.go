package env

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/austinabell/nesdie/register"
	"github.com/austinabell/nesdie/sys"
	"github.com/austinabell/nesdie/types"
)

// StateKey is the storage key under which contract state is kept.
const StateKey = "STATE"

// storagePricePerByte is the balance locked per stored byte.
var storagePricePerByte = types.Balance{Hi: 0x21e, Lo: 0x19e0c9bab2400000} // 10^22

// StorageWrite stores value under key and reports whether a previous value
// was replaced. The replaced value is left in the Evicted register.
func StorageWrite(key, value []byte) bool {
	return boolResult("storage_write", sys.StorageWrite(
		uint64(len(key)), sys.Ptr(key),
		uint64(len(value)), sys.Ptr(value),
		register.Evicted,
	))
}

// StorageRead returns the value under key. Absence is reported by ok, not
// by an error; err is only set when the value could not be copied in.
func StorageRead(key []byte) (value []byte, ok bool, err error) {
	if !boolResult("storage_read", sys.StorageRead(uint64(len(key)), sys.Ptr(key), register.AtomicOp)) {
		return nil, false, nil
	}
	value, err = register.Read(register.AtomicOp)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// StorageRemove deletes key and reports whether it existed. The removed
// value is left in the Evicted register.
func StorageRemove(key []byte) bool {
	return boolResult("storage_remove", sys.StorageRemove(uint64(len(key)), sys.Ptr(key), register.Evicted))
}

// StorageHasKey reports whether key holds a value.
func StorageHasKey(key []byte) bool {
	return boolResult("storage_has_key", sys.StorageHasKey(uint64(len(key)), sys.Ptr(key)))
}

// StorageGetEvicted returns the value displaced by the last StorageWrite or
// StorageRemove that replaced something.
func StorageGetEvicted() ([]byte, bool, error) {
	b, err := register.Read(register.Evicted)
	if errors.Is(err, register.ErrNotSet) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// StorageByteCost is the balance locked for each byte of storage.
func StorageByteCost() types.Balance {
	return storagePricePerByte
}

// StateReadRaw returns the serialized contract state.
func StateReadRaw() ([]byte, bool, error) {
	return StorageRead([]byte(StateKey))
}

// StateWriteRaw replaces the serialized contract state.
func StateWriteRaw(data []byte) {
	StorageWrite([]byte(StateKey), data)
}

// StateExists reports whether contract state has been written.
func StateExists() bool {
	return StorageHasKey([]byte(StateKey))
}

// StateRead decodes the JSON contract state into v. It reports false when
// no state has been written yet.
func StateRead(v any) (bool, error) {
	data, ok, err := StateReadRaw()
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode state: %w", err)
	}
	return true, nil
}

// StateWrite stores v as the JSON contract state.
func StateWrite(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	StateWriteRaw(data)
	return nil
}
