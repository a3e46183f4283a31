package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.JPG", "a.png", "notes.txt", "c.webp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), 0755))

	files, err := collectImages(dir)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.JPG"),
		filepath.Join(dir, "c.webp"),
	}, files)

	single, err := collectImages(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
	require.Len(t, single, 1)

	_, err = collectImages(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestRunReturnsOnSetupError(t *testing.T) {
	chdir(t, t.TempDir())
	args := os.Args
	t.Cleanup(func() { os.Args = args })

	empty := t.TempDir()
	os.Args = []string{"classify", "-i", empty}
	require.Equal(t, 1, run())

	os.Args = []string{"classify", "-i", filepath.Join(empty, "missing.jpg")}
	require.Equal(t, 1, run())
}
