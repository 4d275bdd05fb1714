package atomicfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name string `json:"name"`
}

func TestWriteJSONThenReadJSONRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")

	require.NoError(t, WriteJSON(path, doc{Name: "hello"}))

	var out doc
	require.NoError(t, ReadJSON(path, &out))
	assert.Equal(t, "hello", out.Name)
}

func TestWriteJSONLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, WriteJSON(path, doc{Name: "x"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "data.json", entries[0].Name())
}

func TestWriteTextRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "title.txt")
	require.NoError(t, WriteText(path, "Hello World"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", string(data))
}

func TestBackupCorruptCreatesTimestampedCopy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "articles_registry.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	backupPath, err := BackupCorrupt(path)
	require.NoError(t, err)

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, "garbage", string(data))
}
