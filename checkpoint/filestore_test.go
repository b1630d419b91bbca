package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_WriteReadRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "state.json"))

	doc := `{"version":1,"storage":{},"writes":{}}`
	require.NoError(t, store.WriteState(doc))

	got, ok := store.ReadState()
	require.True(t, ok)
	assert.Equal(t, doc, got)
	assert.True(t, store.StateExists())
}

func TestFileStore_RejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewFileStore(path)

	err := store.WriteState("{not json")
	assert.ErrorIs(t, err, ErrInvalidJSON)

	// nothing written, not even a temp file
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(statErr))
	assert.False(t, store.StateExists())
}

func TestFileStore_OverwriteReplacesContent(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))

	require.NoError(t, store.WriteState(`{"a":1}`))
	require.NoError(t, store.WriteState(`{"b":2}`))

	got, ok := store.ReadState()
	require.True(t, ok)
	assert.Equal(t, `{"b":2}`, got)
}

func TestFileStore_ReadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	got, ok := store.ReadState()
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestFileStore_ReadDirectoryPath(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	_, ok := store.ReadState()
	assert.False(t, ok)
	assert.False(t, store.StateExists())
}

func TestFileStore_ReadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))

	store := NewFileStore(path)
	_, ok := store.ReadState()
	assert.False(t, ok)
}

func TestFileStore_ClearStateIdempotent(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))

	// clearing before anything was written is fine
	require.NoError(t, store.ClearState())

	require.NoError(t, store.WriteState(`{}`))
	require.NoError(t, store.ClearState())
	assert.False(t, store.StateExists())

	// and again after the file is gone
	require.NoError(t, store.ClearState())
}
