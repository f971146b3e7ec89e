package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dtnitsch/release-scraper/models"
	"github.com/stretchr/testify/require"
)

func TestSaveFile_CreatesDirAndLeavesNoTemp(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s := New(dir)

	require.NoError(t, s.SaveFile("a.json", []byte("one")))
	require.NoError(t, s.SaveFile("a.json", []byte("two")))

	data, err := s.ReadFile("a.json")
	require.NoError(t, err)
	require.Equal(t, "two", string(data))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	stats, err := s.GetFileStats("a.json")
	require.NoError(t, err)
	require.EqualValues(t, 3, stats.SizeBytes)
	require.True(t, s.HasFile("a.json"))
	require.False(t, s.HasFile("b.json"))

	_, err = s.GetFileStats("b.json")
	require.Error(t, err)
	_, err = s.ReadFile("b.json")
	require.Error(t, err)
}

func TestSaveFile_FailureLeavesTargetAndNoTemp(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	// A non-empty directory cannot be replaced by a rename.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "busy.json", "x"), 0755))

	require.Error(t, s.SaveFile("busy.json", []byte("data")))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.True(t, files[0].IsDir())
}

func TestRemove(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.SaveFile("a.json", []byte("x")))

	require.NoError(t, s.Remove("a.json"))
	require.False(t, s.HasFile("a.json"))
	require.NoError(t, s.Remove("a.json"))
}

func TestEncodeJSON_IndentAndNoEscaping(t *testing.T) {
	m := models.NewVersionMap()
	m.Add("1.3.0", models.DownloadEntry{Platform: "Linux", Description: "x64 <AppImage> & ü", URL: "https://d/a?x=1&y=2", Filename: "a"})
	m.Add("1.2.0", models.DownloadEntry{Platform: "macOS"})

	data, err := EncodeJSON(m)
	require.NoError(t, err)

	out := string(data)
	require.Contains(t, out, "\n    \"1.3.0\": [\n        {\n")
	require.Contains(t, out, "x64 <AppImage> & ü")
	require.Contains(t, out, "https://d/a?x=1&y=2")
	require.Less(t, strings.Index(out, "1.3.0"), strings.Index(out, "1.2.0"))
}

func TestEncodeYAML_KeepsOrder(t *testing.T) {
	m := models.NewVersionMap()
	m.Add("2.0", models.DownloadEntry{Platform: "Linux"})
	m.Add("1.0", models.DownloadEntry{Platform: "Linux"})

	data, err := EncodeYAML(m)
	require.NoError(t, err)
	require.Less(t, strings.Index(string(data), "2.0"), strings.Index(string(data), "1.0"))
}
