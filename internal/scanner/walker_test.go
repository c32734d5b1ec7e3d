package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func walkedPaths(files []WalkedFile) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

func TestWalkFiltersAndOrder(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "movies", "Inception (2010).mkv"))
	writeFile(t, filepath.Join(root, "movies", "notes.txt"))
	writeFile(t, filepath.Join(root, "movies", ".hidden.mkv"))
	writeFile(t, filepath.Join(root, "movies", "download.mkv.part"))
	writeFile(t, filepath.Join(root, "tv", "Show.S01E01.mp4"))
	writeFile(t, filepath.Join(root, ".cache", "thumb.mkv"))

	w := NewWalker([]string{root}, []string{"mkv", "mp4"})
	files, errs := w.Walk()

	assert.Empty(t, errs)
	assert.Equal(t, []string{
		filepath.Join(root, "movies", "Inception (2010).mkv"),
		filepath.Join(root, "tv", "Show.S01E01.mp4"),
	}, walkedPaths(files))
}

func TestWalkDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"c.mkv", "a.mkv", "b.mkv"} {
		writeFile(t, filepath.Join(root, name))
	}

	w := NewWalker([]string{root}, []string{"mkv"})
	first, _ := w.Walk()
	second, _ := w.Walk()

	assert.Equal(t, []string{
		filepath.Join(root, "a.mkv"),
		filepath.Join(root, "b.mkv"),
		filepath.Join(root, "c.mkv"),
	}, walkedPaths(first))
	assert.Equal(t, walkedPaths(first), walkedPaths(second))
}

func TestWalkSkipsSymlinkedFiles(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "real.mkv")
	writeFile(t, target)

	link := filepath.Join(root, "alias.mkv")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	w := NewWalker([]string{root}, []string{"mkv"})
	files, errs := w.Walk()

	assert.Empty(t, errs)
	assert.Equal(t, []string{target}, walkedPaths(files))
}

func TestWalkRecordsStatFields(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "movie.mkv")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	w := NewWalker([]string{root}, []string{".mkv"})
	files, errs := w.Walk()

	assert.Empty(t, errs)
	require.Len(t, files, 1)
	assert.Equal(t, "movie.mkv", files[0].Name)
	assert.Equal(t, int64(5), files[0].Size)
	assert.False(t, files[0].ModTime.IsZero())
}

func TestWalkMissingRoot(t *testing.T) {
	w := NewWalker([]string{"/nonexistent/library"}, []string{"mkv"})
	files, errs := w.Walk()

	assert.Empty(t, files)
	require.NotEmpty(t, errs)
	assert.Equal(t, "/nonexistent/library", errs[0].Path)
}
