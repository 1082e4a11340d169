package state

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDBOptions tunes the on-disk store.
type LevelDBOptions struct {
	// CacheMiB is split between the block cache and the write buffer.
	CacheMiB int `mapstructure:"cache_mib"`
	// OpenFiles caps the open file descriptor cache.
	OpenFiles int `mapstructure:"open_files"`
}

// DefaultLevelDBOptions is used when OpenLevelDB receives nil options.
var DefaultLevelDBOptions = LevelDBOptions{CacheMiB: 16, OpenFiles: 64}

// LevelDB is a Store persisted with goleveldb.
type LevelDB struct {
	path string
	db   *leveldb.DB
}

// OpenLevelDB opens or creates the database at path.
func OpenLevelDB(path string, o *LevelDBOptions) (*LevelDB, error) {
	if o == nil {
		o = &DefaultLevelDBOptions
	}
	db, err := leveldb.OpenFile(path, &opt.Options{
		OpenFilesCacheCapacity: o.OpenFiles,
		BlockCacheCapacity:     o.CacheMiB / 2 * opt.MiB,
		WriteBuffer:            o.CacheMiB / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	if lerrors.IsCorrupted(err) {
		return nil, fmt.Errorf("state: database at %s is corrupted: %w", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("state: open %s: %w", path, err)
	}
	return &LevelDB{path: path, db: db}, nil
}

// Path is the directory the database lives in.
func (l *LevelDB) Path() string { return l.path }

func (l *LevelDB) Get(key []byte) ([]byte, bool, error) {
	v, err := l.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, l.wrap(err)
	}
	return v, true, nil
}

func (l *LevelDB) Has(key []byte) (bool, error) {
	ok, err := l.db.Has(key, nil)
	if err != nil {
		return false, l.wrap(err)
	}
	return ok, nil
}

func (l *LevelDB) Set(key, value []byte) error {
	return l.wrap(l.db.Put(key, value, nil))
}

func (l *LevelDB) Delete(key []byte) error {
	return l.wrap(l.db.Delete(key, nil))
}

// Apply writes ops in a single leveldb batch.
func (l *LevelDB) Apply(ops []Op) error {
	batch := new(leveldb.Batch)
	for _, op := range ops {
		if op.Value == nil {
			batch.Delete(op.Key)
			continue
		}
		batch.Put(op.Key, op.Value)
	}
	return l.wrap(l.db.Write(batch, nil))
}

// Keys returns every key with the given prefix, in key order.
func (l *LevelDB) Keys(prefix []byte) ([]string, error) {
	iter := l.db.NewIterator(nil, nil)
	defer iter.Release()

	var keys []string
	for ok := iter.Seek(prefix); ok; ok = iter.Next() {
		k := iter.Key()
		if len(k) < len(prefix) || string(k[:len(prefix)]) != string(prefix) {
			break
		}
		keys = append(keys, string(k))
	}
	return keys, l.wrap(iter.Error())
}

func (l *LevelDB) Close() error {
	return l.wrap(l.db.Close())
}

func (l *LevelDB) wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, leveldb.ErrClosed) {
		return ErrClosed
	}
	return fmt.Errorf("state: leveldb: %w", err)
}
