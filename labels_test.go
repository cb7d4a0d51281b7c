package objmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeLabels(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadClassMapPlain(t *testing.T) {
	path := writeLabels(t, "person\ncar\n\ntruck\n")

	classes, err := LoadClassMap(path)
	require.NoError(t, err)
	require.Equal(t, ClassMap{0: "person", 1: "car", 3: "truck"}, classes)
	require.Equal(t, []string{"person", "car", "truck"}, classes.Names())
}

func TestLoadClassMapExplicitIDs(t *testing.T) {
	path := writeLabels(t, "2: bicycle\n0: person\n")

	classes, err := LoadClassMap(path)
	require.NoError(t, err)

	name, ok := classes.Name(2)
	require.True(t, ok)
	require.Equal(t, "bicycle", name)

	_, ok = classes.Name(1)
	require.False(t, ok)
	require.Equal(t, []int{0, 2}, classes.IDs())
}

func TestLoadClassMapErrors(t *testing.T) {
	_, err := LoadClassMap(writeLabels(t, "x: person\n"))
	require.Error(t, err)

	_, err = LoadClassMap(writeLabels(t, "0: person\n0: car\n"))
	require.Error(t, err)

	_, err = LoadClassMap(writeLabels(t, "\n\n"))
	require.Error(t, err)

	_, err = LoadClassMap(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestDefaultClassMap(t *testing.T) {
	classes := DefaultClassMap()
	require.Equal(t, []string{"person", "car"}, classes.Names())
}
