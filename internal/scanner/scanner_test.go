package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/assert"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestScanClassifiesVideosSamplesAndExtras(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Movie.mkv"))
	writeFile(t, filepath.Join(dir, "Movie.sample.mkv"))
	writeFile(t, filepath.Join(dir, "Movie.sampler.mkv")) // not a sample despite substring
	writeFile(t, filepath.Join(dir, "Extras", "behind.mkv"))
	writeFile(t, filepath.Join(dir, "notes.txt"))

	result, err := Scan(dir)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Counts.Videos) // Movie.mkv + Movie.sampler.mkv
	assert.Equal(t, 1, result.Counts.Samples)
}

func TestGroupByParent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Season 01", "01.mkv"))
	writeFile(t, filepath.Join(dir, "Season 01", "02.mkv"))
	writeFile(t, filepath.Join(dir, "Season 02", "01.mkv"))

	result, err := Scan(dir)
	require.NoError(t, err)

	groups := GroupByParent(result.Videos)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0].Videos, 2)
	assert.Len(t, groups[1].Videos, 1)
}
