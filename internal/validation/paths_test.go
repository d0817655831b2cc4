package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	v := NewPathValidator()
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := v.Clean("~/.newsdesk/cache.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".newsdesk", "cache.db"), got)

	for _, bad := range []string{"", "../etc/passwd", "a/../../b", "bad\x00path", "~other/file"} {
		_, err := v.Clean(bad)
		assert.ErrorIs(t, err, ErrUnsafePath, bad)
	}
}

func TestAllowedBaseDirs(t *testing.T) {
	base := t.TempDir()
	v := NewPathValidator(base)

	_, err := v.Clean(filepath.Join(base, "nested", "file.db"))
	require.NoError(t, err)

	_, err = v.Clean(filepath.Join(os.TempDir(), "elsewhere-"+filepath.Base(base)))
	assert.ErrorIs(t, err, ErrUnsafePath)
}

func TestFileCreatesParent(t *testing.T) {
	dir := t.TempDir()
	v := NewPathValidator()

	path, err := v.File(filepath.Join(dir, "a", "b", "cache.db"))
	require.NoError(t, err)
	assert.DirExists(t, filepath.Dir(path))

	_, err = v.File(dir)
	assert.ErrorIs(t, err, ErrUnsafePath)
}

func TestExistingFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "news.toml")
	require.NoError(t, os.WriteFile(file, []byte("[[news]]\n"), 0o600))
	v := NewPathValidator()

	got, err := v.ExistingFile(file)
	require.NoError(t, err)
	assert.Equal(t, file, got)

	_, err = v.ExistingFile(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	_, err = v.ExistingFile(dir)
	assert.ErrorIs(t, err, ErrUnsafePath)
}

func TestDirectory(t *testing.T) {
	dir := t.TempDir()
	v := NewPathValidator()

	got, err := v.Directory(filepath.Join(dir, "index.bleve"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "index.bleve"), got)

	file := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	_, err = v.Directory(file)
	assert.ErrorIs(t, err, ErrUnsafePath)
}
