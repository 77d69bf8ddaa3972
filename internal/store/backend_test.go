package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBackendRoundTrip(t *testing.T) {
	t.Parallel()
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	data, err := backend.ReadCollection("tasks")
	require.NoError(t, err)
	assert.Nil(t, data, "absent collection reads as nil, not an error")

	require.NoError(t, backend.WriteCollection("tasks", []byte(`[{"id":"a"}]`)))
	data, err = backend.ReadCollection("tasks")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a"}]`, string(data))

	// A rewrite replaces the collection wholesale.
	require.NoError(t, backend.WriteCollection("tasks", []byte(`[]`)))
	data, err = backend.ReadCollection("tasks")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestFileBackendLeavesNoTempFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	require.NoError(t, err)

	require.NoError(t, backend.WriteCollection("projects", []byte(`[]`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "projects.json", entries[0].Name())
	assert.Equal(t, filepath.Join(dir, "projects.json"), backend.path("projects"))
}

func TestCollectionsAreIsolated(t *testing.T) {
	t.Parallel()
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, backend.WriteCollection("tasks", []byte(`[{"id":"t"}]`)))
	require.NoError(t, backend.WriteCollection("projects", []byte(`[{"id":"p"}]`)))

	tasks, err := backend.ReadCollection("tasks")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"t"}]`, string(tasks))
}
