package filex

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDir("exports")
	require.NoError(t, err)

	// macOS temp dirs resolve through /private
	want, _ := filepath.EvalSymlinks(filepath.Join(tmp, "exports"))
	gotResolved, _ := filepath.EvalSymlinks(got)
	require.Equal(t, want, gotResolved)

	fi, err := os.Stat(got)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")
}

func TestEnsureDir_AbsoluteAndIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	got, err := EnsureDir(dir)
	require.NoError(t, err)
	require.Equal(t, dir, got)

	_, err = EnsureDir(dir)
	require.NoError(t, err)
}

func TestEnsureDir_FileInTheWay(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := EnsureDir(filepath.Join(blocker, "sub"))
	require.Error(t, err)
}

func TestCreateFile(t *testing.T) {
	dir := t.TempDir()

	f, err := CreateFile(dir, "exports/space/item/2025-abc.json")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "2025-abc.json"), f.Name())
	require.NoError(t, f.Close())

	_, err = CreateFile(dir, "2025-abc.json")
	require.True(t, errors.Is(err, fs.ErrExist), "second create must not overwrite: %v", err)
}
