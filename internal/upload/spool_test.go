package upload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpool_StoreAndOpen(t *testing.T) {
	s, err := NewSpool(filepath.Join(t.TempDir(), "spool"))
	require.NoError(t, err)

	path, n, err := s.Store("sess", strings.NewReader("hello"), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, s.Dir(), filepath.Dir(path))

	f, err := s.Open(path)
	require.NoError(t, err)
	data := make([]byte, 5)
	_, err = f.Read(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "hello", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	s.Remove(path)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	s.Remove(path)
}

func TestSpool_RejectsOversizedContent(t *testing.T) {
	s, err := NewSpool(t.TempDir())
	require.NoError(t, err)

	_, _, err = s.Store("sess", strings.NewReader("0123456789x"), 10)
	require.ErrorIs(t, err, ErrFileTooLarge)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "partial file cleaned up")
}

func TestSpool_ConfinesPaths(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSpool(filepath.Join(dir, "spool"))
	require.NoError(t, err)

	outside := filepath.Join(dir, "secret.part")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))

	_, err = s.Open(outside)
	assert.Error(t, err)
	_, err = s.Open(filepath.Join(s.Dir(), "..", "secret.part"))
	assert.Error(t, err)

	s.Remove(outside)
	_, err = os.Stat(outside)
	assert.NoError(t, err, "files outside the spool are never removed")
}

func TestSpool_Purge(t *testing.T) {
	s, err := NewSpool(t.TempDir())
	require.NoError(t, err)

	for range 3 {
		_, _, err := s.Store("old", strings.NewReader("x"), 10)
		require.NoError(t, err)
	}
	keep := filepath.Join(s.Dir(), "notes.txt")
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0o600))

	n, err := s.Purge()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, err = os.Stat(keep)
	assert.NoError(t, err)
}
