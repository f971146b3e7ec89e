package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestVersionMap_KeepsInsertionOrder(t *testing.T) {
	m := NewVersionMap()
	m.Add("1.2.0", DownloadEntry{Platform: "Linux"})
	m.Add("1.10.0", DownloadEntry{Platform: "Linux"})
	m.Add("1.2.0", DownloadEntry{Platform: "macOS"})

	require.Equal(t, []string{"1.2.0", "1.10.0"}, m.Keys())
	require.Equal(t, 2, m.Len())
	require.Equal(t, 3, m.EntryCount())

	entries, ok := m.Get("1.2.0")
	require.True(t, ok)
	require.Equal(t, "macOS", entries[1].Platform)

	_, ok = m.Get("9.9")
	require.False(t, ok)
}

func TestVersionMap_JSON(t *testing.T) {
	m := NewVersionMap()
	m.Add("b", DownloadEntry{Platform: "Linux", URL: "https://d/x?a=1&b=2"})
	m.Add("a", DownloadEntry{Platform: "macOS"})

	data, err := json.Marshal(m)
	require.NoError(t, err)
	out := string(data)
	require.Less(t, strings.Index(out, `"b"`), strings.Index(out, `"a"`))
	require.Contains(t, out, "a=1&b=2")

	decoded := NewVersionMap()
	require.NoError(t, json.Unmarshal(data, decoded))
	require.Equal(t, []string{"b", "a"}, decoded.Keys())

	require.Error(t, json.Unmarshal([]byte(`["x"]`), decoded))
}

func TestVersionMap_YAMLKeepsOrder(t *testing.T) {
	m := NewVersionMap()
	m.Add("2.0", DownloadEntry{Platform: "Linux"})
	m.Add("1.0", DownloadEntry{Platform: "Linux"})

	data, err := yaml.Marshal(m)
	require.NoError(t, err)
	out := string(data)
	require.Less(t, strings.Index(out, "2.0"), strings.Index(out, "1.0"))

	var back map[string][]DownloadEntry
	require.NoError(t, yaml.Unmarshal(data, &back))
	require.Len(t, back["2.0"], 1)
}

func TestAggregateResult_IsEmpty(t *testing.T) {
	var nilResult *AggregateResult
	require.True(t, nilResult.IsEmpty())

	r := NewAggregateResult("https://www.example.com")
	require.True(t, r.IsEmpty())
	r.Versions.Add("1.0", DownloadEntry{})
	require.False(t, r.IsEmpty())
}
