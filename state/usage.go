package state

import (
	"encoding/binary"
	"fmt"

	"github.com/austinabell/nesdie/types"
)

const usagePrefix = "#usage:"

// UsageKey is where the host records account's storage usage. Account IDs
// never start with '#', so the record sits outside every namespace.
func UsageKey(account types.AccountID) []byte {
	return []byte(usagePrefix + string(account))
}

// LoadUsage reads account's recorded storage usage.
func LoadUsage(s Store, account types.AccountID) (uint64, bool, error) {
	v, ok, err := s.Get(UsageKey(account))
	if err != nil || !ok {
		return 0, false, err
	}
	if len(v) != 8 {
		return 0, false, fmt.Errorf("state: corrupt usage record for %s: %d bytes", account, len(v))
	}
	return binary.LittleEndian.Uint64(v), true, nil
}

// SaveUsage records account's storage usage.
func SaveUsage(s Store, account types.AccountID, n uint64) error {
	return s.Set(UsageKey(account), binary.LittleEndian.AppendUint64(nil, n))
}
