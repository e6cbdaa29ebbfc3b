package logstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trades.log")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestAppendAndVerify(t *testing.T) {
	store, path := openTestStore(t)

	require.NoError(t, store.Append("run=1 direction=USDC->USDT->USDC profit=0.42"))
	require.NoError(t, store.Append("run=2 direction=USDT->USDC->USDT profit=-0.10"))
	require.NoError(t, store.Verify())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	// Record layout: "<unix_ms> <checksum> <msg>".
	fields := strings.SplitN(lines[0], " ", 3)
	require.Len(t, fields, 3)
	assert.Len(t, fields[1], 16)
	assert.Equal(t, "run=1 direction=USDC->USDT->USDC profit=0.42", fields[2])
}

func TestAppendFlattensNewlines(t *testing.T) {
	store, _ := openTestStore(t)

	require.NoError(t, store.Append("line one\nline two"))
	require.NoError(t, store.Verify())
}

func TestVerifyDetectsTampering(t *testing.T) {
	store, path := openTestStore(t)

	require.NoError(t, store.Append("run=1 profit=0.42"))
	require.NoError(t, store.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), "profit=0.42", "profit=9.99", 1)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0o644))

	assert.Error(t, store.Verify())
}

func TestAppendAfterCloseFails(t *testing.T) {
	store, _ := openTestStore(t)
	require.NoError(t, store.Close())
	assert.Error(t, store.Append("too late"))
}

func TestVerifyEmptyJournal(t *testing.T) {
	store, _ := openTestStore(t)
	assert.NoError(t, store.Verify())
}
