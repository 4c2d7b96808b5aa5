package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndDelete(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	fs, err := NewFileStore(root, "/uploads/")
	require.NoError(t, err)

	p, err := fs.Save([]byte("png"), "7_abc.png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/7_abc.png", p)

	data, err := os.ReadFile(filepath.Join(root, "7_abc.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NoError(t, fs.Delete(p))
	_, err = os.Stat(filepath.Join(root, "7_abc.png"))
	assert.True(t, os.IsNotExist(err))

	// already gone
	assert.NoError(t, fs.Delete(p))
}

func TestDeleteRejectsForeignPaths(t *testing.T) {
	fs, err := NewFileStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	assert.ErrorIs(t, fs.Delete("/etc/passwd"), ErrOutsideRoot)
	assert.ErrorIs(t, fs.Delete("/uploads/../secret"), ErrOutsideRoot)
}

func TestSaveUsesBaseName(t *testing.T) {
	root := t.TempDir()
	fs, err := NewFileStore(root, "/uploads")
	require.NoError(t, err)

	p, err := fs.Save([]byte("x"), "../../evil.png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/evil.png", p)
	_, err = os.Stat(filepath.Join(root, "evil.png"))
	assert.NoError(t, err)
}
