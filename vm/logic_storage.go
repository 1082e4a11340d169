package vm

import "math"

// storageRecordOverhead is the number of bytes charged per stored record on
// top of its key and value.
const storageRecordOverhead = 40

func (l *Logic) addUsage(n uint64) error {
	if l.storageUsage > math.MaxUint64-n {
		return hostErr(IntegerOverflow, "storage usage overflows")
	}
	l.storageUsage += n
	return nil
}

// subUsage fails rather than wrapping when the account is charged for fewer
// bytes than it releases, which means the usage it started from was wrong.
func (l *Logic) subUsage(n uint64) error {
	if n > l.storageUsage {
		return hostErr(IntegerOverflow, "storage usage %d is below released %d bytes", l.storageUsage, n)
	}
	l.storageUsage -= n
	return nil
}

func (l *Logic) storageKey(n, ptr uint64) ([]byte, error) {
	key, err := l.getBytes(n, ptr)
	if err != nil {
		return nil, err
	}
	if uint64(len(key)) > l.limits.MaxKeyLength {
		return nil, hostErr(KeyLengthExceeded, "key of %d bytes exceeds %d", len(key), l.limits.MaxKeyLength)
	}
	return key, nil
}

// StorageWrite stages value under key. It returns 1 and puts the replaced
// value in registerID when the key already held a value.
func (l *Logic) StorageWrite(keyLen, keyPtr, valueLen, valuePtr, registerID uint64) (_ uint64, err error) {
	defer l.record(&err)
	if err := l.enter(l.gasCfg.StorageWriteBase); err != nil {
		return 0, err
	}
	if err := l.notInView("storage_write"); err != nil {
		return 0, err
	}
	key, err := l.storageKey(keyLen, keyPtr)
	if err != nil {
		return 0, err
	}
	value, err := l.getBytes(valueLen, valuePtr)
	if err != nil {
		return 0, err
	}
	if uint64(len(value)) > l.limits.MaxValueLength {
		return 0, hostErr(ValueLengthExceeded, "value of %d bytes exceeds %d", len(value), l.limits.MaxValueLength)
	}
	if err := l.burnBytes(l.gasCfg.StorageWriteKeyByte, uint64(len(key))); err != nil {
		return 0, err
	}
	if err := l.burnBytes(l.gasCfg.StorageWriteValueByte, uint64(len(value))); err != nil {
		return 0, err
	}

	old, existed, err := l.storage.Get(key)
	if err != nil {
		return 0, err
	}
	if err := l.storage.Set(key, value); err != nil {
		return 0, err
	}

	if !existed {
		return 0, l.addUsage(uint64(len(key)) + uint64(len(value)) + storageRecordOverhead)
	}
	if len(value) >= len(old) {
		err = l.addUsage(uint64(len(value) - len(old)))
	} else {
		err = l.subUsage(uint64(len(old) - len(value)))
	}
	if err != nil {
		return 0, err
	}
	if err := l.setRegister(registerID, old); err != nil {
		return 0, err
	}
	return 1, nil
}

// StorageRead returns 1 and puts the value in registerID when key holds one.
func (l *Logic) StorageRead(keyLen, keyPtr, registerID uint64) (_ uint64, err error) {
	defer l.record(&err)
	if err := l.enter(l.gasCfg.StorageReadBase); err != nil {
		return 0, err
	}
	key, err := l.storageKey(keyLen, keyPtr)
	if err != nil {
		return 0, err
	}
	if err := l.burnBytes(l.gasCfg.StorageReadKeyByte, uint64(len(key))); err != nil {
		return 0, err
	}
	value, ok, err := l.storage.Get(key)
	if err != nil || !ok {
		return 0, err
	}
	if err := l.burnBytes(l.gasCfg.StorageReadValueByte, uint64(len(value))); err != nil {
		return 0, err
	}
	if err := l.setRegister(registerID, value); err != nil {
		return 0, err
	}
	return 1, nil
}

// StorageRemove stages the removal of key. It returns 1 and puts the removed
// value in registerID when the key held a value.
func (l *Logic) StorageRemove(keyLen, keyPtr, registerID uint64) (_ uint64, err error) {
	defer l.record(&err)
	if err := l.enter(l.gasCfg.StorageRemoveBase); err != nil {
		return 0, err
	}
	if err := l.notInView("storage_remove"); err != nil {
		return 0, err
	}
	key, err := l.storageKey(keyLen, keyPtr)
	if err != nil {
		return 0, err
	}
	old, existed, err := l.storage.Get(key)
	if err != nil || !existed {
		return 0, err
	}
	if err := l.storage.Delete(key); err != nil {
		return 0, err
	}
	if err := l.subUsage(uint64(len(key)) + uint64(len(old)) + storageRecordOverhead); err != nil {
		return 0, err
	}
	if err := l.setRegister(registerID, old); err != nil {
		return 0, err
	}
	return 1, nil
}

func (l *Logic) StorageHasKey(keyLen, keyPtr uint64) (_ uint64, err error) {
	defer l.record(&err)
	if err := l.enter(l.gasCfg.StorageHasKeyBase); err != nil {
		return 0, err
	}
	key, err := l.storageKey(keyLen, keyPtr)
	if err != nil {
		return 0, err
	}
	ok, err := l.storage.Has(key)
	if err != nil || !ok {
		return 0, err
	}
	return 1, nil
}
