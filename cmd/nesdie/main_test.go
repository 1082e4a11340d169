package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/austinabell/nesdie/state"
	"github.com/austinabell/nesdie/types"
	"github.com/austinabell/nesdie/vm"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seed(t *testing.T, dir string, account string, kv map[string]string) {
	t.Helper()
	db, err := state.OpenLevelDB(dir, nil)
	require.NoError(t, err)
	defer db.Close()
	s := state.Prefixed(db, types.AccountID(account))
	for k, v := range kv {
		require.NoError(t, s.Set([]byte(k), []byte(v)))
	}
}

func TestLoadConfig_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nesdie.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
state: /tmp/chain
log_level: debug
memory_limit_pages: 32
leveldb:
  cache_mib: 8
gas:
  base: 7
limits:
  max_logs: 3
`), 0o600))

	cfg, err := loadConfig(newViper(), file)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/chain", cfg.State)
	assert.Equal(t, uint32(32), cfg.MemoryLimitPages)
	assert.Equal(t, 8, cfg.LevelDB.CacheMiB)
	assert.Equal(t, state.DefaultLevelDBOptions.OpenFiles, cfg.LevelDB.OpenFiles)
	assert.Equal(t, uint64(7), cfg.Gas.Base)
	assert.Equal(t, vm.DefaultGasConfig.StorageWriteBase, cfg.Gas.StorageWriteBase)
	assert.Equal(t, 3, cfg.Limits.MaxLogs)

	level, err := cfg.level()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", level.String())
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("NESDIE_STATE", "/var/nesdie")
	t.Setenv("NESDIE_LOG_LEVEL", "error")

	cfg, err := loadConfig(newViper(), "")
	require.NoError(t, err)
	assert.Equal(t, "/var/nesdie", cfg.State)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, vm.DefaultLimits, cfg.Limits)
}

func TestLoadConfig_BadLevel(t *testing.T) {
	cfg := defaultConfig()
	cfg.LogLevel = "loud"
	_, err := cfg.level()
	assert.Error(t, err)
}

func TestStateCommands(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, "kv.test", map[string]string{"ek": "v", "bin": "\xff\x00"})

	out, err := execute(t, "state", "get", "ek", "--account", "kv.test", "--state", dir)
	require.NoError(t, err)
	assert.Equal(t, "v\n", out)

	out, err = execute(t, "state", "get", "bin", "--account", "kv.test", "--state", dir)
	require.NoError(t, err)
	assert.Equal(t, "0xff00\n", out)

	out, err = execute(t, "state", "keys", "--account", "kv.test", "--state", dir)
	require.NoError(t, err)
	assert.Equal(t, "bin\nek\n", out)

	_, err = execute(t, "state", "get", "missing", "--account", "kv.test", "--state", dir)
	assert.ErrorContains(t, err, "not found")

	out, err = execute(t, "state", "usage", "--account", "kv.test", "--state", dir)
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)
}

func TestStateUsage_Recorded(t *testing.T) {
	dir := t.TempDir()
	db, err := state.OpenLevelDB(dir, nil)
	require.NoError(t, err)
	require.NoError(t, state.SaveUsage(db, "kv.test", 142))
	require.NoError(t, db.Close())

	out, err := execute(t, "state", "usage", "--account", "kv.test", "--state", dir)
	require.NoError(t, err)
	assert.Equal(t, "142\n", out)

	out, err = execute(t, "state", "keys", "--account", "kv.test", "--state", dir)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCall_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "call", "--state", dir, "--method", "get")
	assert.ErrorContains(t, err, "wasm")

	_, err = execute(t, "call", "--state", dir, "--wasm", filepath.Join(dir, "missing.wasm"), "--method", "get")
	assert.ErrorContains(t, err, "failed to read contract")

	_, err = execute(t, "call", "--state", dir, "--wasm", "x.wasm", "--method", "get", "--deposit", "abc")
	assert.ErrorContains(t, err, "invalid deposit")
}
