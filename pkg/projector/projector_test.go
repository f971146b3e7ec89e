package projector

import (
	"strings"
	"testing"

	"github.com/dtnitsch/release-scraper/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func entry(platform, url string) models.DownloadEntry {
	return models.DownloadEntry{Platform: platform, Description: platform + " build", URL: url}
}

func TestLatestVersion(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want string
		ok   bool
	}{
		{"empty", nil, "", false},
		{"numeric max", []string{"1.2.0", "1.3.0"}, "1.3.0", true},
		{"numeric not lexical", []string{"1.9", "1.10"}, "1.10", true},
		{"shorter prefix is lower", []string{"1.2.0", "1.2"}, "1.2.0", true},
		{"unparseable falls back to first", []string{"1.2", "Unknown_Version_2", "9.9"}, "1.2", true},
		{"single key", []string{"Unknown_Version_1"}, "Unknown_Version_1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := models.NewVersionMap()
			for _, k := range tt.keys {
				m.Add(k, entry("Linux", "u"))
			}
			got, ok := LatestVersion(m)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLatestLinux(t *testing.T) {
	m := models.NewVersionMap()
	m.Add("1.2.0", entry("Linux", "https://d/old.AppImage"))
	m.Add("1.3.0", entry("macOS", "https://d/new.dmg"))
	m.Add("1.3.0", entry(" linux ", "https://d/padded.AppImage"))
	m.Add("1.3.0", entry("Linux\n", "https://d/newline.AppImage"))
	m.Add("1.3.0", entry("linux", "https://d/new.AppImage"))
	m.Add("1.3.0", entry("LINUX", "https://d/new-arm.AppImage"))

	got, latest, ok := LatestLinux(m)
	require.True(t, ok)
	require.Equal(t, "1.3.0", latest)
	require.Equal(t, []string{"1.3.0"}, got.Keys())

	entries, _ := got.Get("1.3.0")
	want := []models.DownloadEntry{
		entry("linux", "https://d/new.AppImage"),
		entry("LINUX", "https://d/new-arm.AppImage"),
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("LatestLinux() entries mismatch (-want +got):\n%s", diff)
	}
	for _, e := range entries {
		require.Equal(t, Linux, strings.ToLower(e.Platform))
	}
}

func TestLatestLinux_NoLinuxEntry(t *testing.T) {
	m := models.NewVersionMap()
	m.Add("1.2.0", entry("Linux", "https://d/old.AppImage"))
	m.Add("1.3.0", entry("Windows", "https://d/new.exe"))

	got, latest, ok := LatestLinux(m)
	require.False(t, ok)
	require.Nil(t, got)
	require.Equal(t, "1.3.0", latest)

	_, _, ok = LatestLinux(models.NewVersionMap())
	require.False(t, ok)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("platform:Linux|darwin, version:latest")
	require.NoError(t, err)
	require.Equal(t, "latest", s.Version)
	require.Contains(t, s.Platforms, "linux")
	require.Contains(t, s.Platforms, "darwin")

	s, err = ParseStrategy("")
	require.NoError(t, err)
	require.Empty(t, s.Platforms)

	for _, bad := range []string{"platform", "arch:x64", "version:"} {
		_, err := ParseStrategy(bad)
		require.Error(t, err, bad)
	}
}

func TestApply(t *testing.T) {
	m := models.NewVersionMap()
	m.Add("1.2.0", entry("Linux", "a"))
	m.Add("1.2.0", entry("Windows", "b"))
	m.Add("1.3.0", entry("Windows", "c"))
	m.Add("1.1.0", entry("Linux", "d"))

	s, err := ParseStrategy("platform:linux")
	require.NoError(t, err)
	got := Apply(m, s)
	require.Equal(t, []string{"1.2.0", "1.1.0"}, got.Keys())
	require.Equal(t, 2, got.EntryCount())

	s, err = ParseStrategy("version:1.2.0")
	require.NoError(t, err)
	got = Apply(m, s)
	require.Equal(t, []string{"1.2.0"}, got.Keys())
	require.Equal(t, 2, got.EntryCount())

	s, err = ParseStrategy("version:latest,platform:linux")
	require.NoError(t, err)
	require.Equal(t, 0, Apply(m, s).Len())

	require.Equal(t, 4, Apply(m, nil).EntryCount())

	m.Add("1.1.0", entry(" Linux", "e"))
	s, err = ParseStrategy("platform:linux")
	require.NoError(t, err)
	entries, _ := Apply(m, s).Get("1.1.0")
	require.Equal(t, []models.DownloadEntry{entry("Linux", "d")}, entries)
}
