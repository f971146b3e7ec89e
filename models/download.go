package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// DownloadEntry is one resolved download link.
type DownloadEntry struct {
	Platform    string `json:"platform" yaml:"platform"`
	Description string `json:"description" yaml:"description"`
	URL         string `json:"url" yaml:"url"`
	Filename    string `json:"filename" yaml:"filename"`
}

// LinkFailure records a link whose retries were exhausted.
type LinkFailure struct {
	Version     string `json:"version" yaml:"version"`
	Section     int    `json:"section" yaml:"section"`
	Link        int    `json:"link" yaml:"link"`
	Platform    string `json:"platform" yaml:"platform"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
	Attempts    int    `json:"attempts" yaml:"attempts"`
	Marker      string `json:"marker" yaml:"marker"`
}

// VersionMap maps version strings to their download entries, keeping the
// order in which versions were first seen on the page.
type VersionMap struct {
	keys    []string
	buckets map[string][]DownloadEntry
}

func NewVersionMap() *VersionMap {
	return &VersionMap{buckets: make(map[string][]DownloadEntry)}
}

// Add appends an entry to the bucket for version, creating it on first use.
func (m *VersionMap) Add(version string, entry DownloadEntry) {
	if m.buckets == nil {
		m.buckets = make(map[string][]DownloadEntry)
	}
	if _, ok := m.buckets[version]; !ok {
		m.keys = append(m.keys, version)
	}
	m.buckets[version] = append(m.buckets[version], entry)
}

// Keys returns versions in insertion order.
func (m *VersionMap) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *VersionMap) Get(version string) ([]DownloadEntry, bool) {
	if m == nil {
		return nil, false
	}
	entries, ok := m.buckets[version]
	return entries, ok
}

func (m *VersionMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// EntryCount returns the number of entries across all versions.
func (m *VersionMap) EntryCount() int {
	total := 0
	for _, k := range m.Keys() {
		total += len(m.buckets[k])
	}
	return total
}

// MarshalJSON writes an object whose keys follow insertion order.
func (m *VersionMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		value, err := marshalNoEscape(m.buckets[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, keeping the key order of the document.
func (m *VersionMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object for version map")
	}
	*m = VersionMap{buckets: make(map[string][]DownloadEntry)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected string key in version map")
		}
		var entries []DownloadEntry
		if err := dec.Decode(&entries); err != nil {
			return fmt.Errorf("failed to decode entries for %s: %w", key, err)
		}
		for _, e := range entries {
			m.Add(key, e)
		}
	}
	_, err = dec.Token()
	return err
}

// MarshalYAML returns a mapping node so yaml.v3 keeps insertion order.
func (m *VersionMap) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range m.Keys() {
		var value yaml.Node
		if err := value.Encode(m.buckets[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&value,
		)
	}
	return node, nil
}

// marshalNoEscape matches the output of a writer that keeps non-ASCII and
// HTML characters as-is.
func marshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// AggregateResult is the outcome of one extraction run.
type AggregateResult struct {
	TargetURL    string        `json:"target_url" yaml:"target_url"`
	PageTitle    string        `json:"page_title,omitempty" yaml:"page_title,omitempty"`
	Versions     *VersionMap   `json:"versions" yaml:"versions"`
	SectionCount int           `json:"section_count" yaml:"section_count"`
	SuccessCount int           `json:"success_count" yaml:"success_count"`
	FailCount    int           `json:"fail_count" yaml:"fail_count"`
	Failures     []LinkFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
	StartedAt    time.Time     `json:"started_at" yaml:"started_at"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
}

func NewAggregateResult(targetURL string) *AggregateResult {
	return &AggregateResult{
		TargetURL: targetURL,
		Versions:  NewVersionMap(),
		StartedAt: time.Now(),
	}
}

// IsEmpty reports whether no version bucket was produced.
func (r *AggregateResult) IsEmpty() bool {
	return r == nil || r.Versions.Len() == 0
}
