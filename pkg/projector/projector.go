// Package projector derives secondary views from an extraction result:
// the latest version, and entries restricted to given platforms.
package projector

import (
	"fmt"
	"strings"

	"github.com/dtnitsch/release-scraper/models"
	"github.com/dtnitsch/release-scraper/pkg/version"
)

const Linux = "linux"

// LatestVersion picks the highest version key by dotted numeric order.
// If any key is not purely dotted numeric, the first key seen wins instead;
// numeric and non-numeric keys are never compared with each other.
func LatestVersion(m *models.VersionMap) (string, bool) {
	keys := m.Keys()
	if len(keys) == 0 {
		return "", false
	}

	latest := keys[0]
	latestTuple, err := version.ParseTuple(latest)
	if err != nil {
		return keys[0], true
	}
	for _, k := range keys[1:] {
		tuple, err := version.ParseTuple(k)
		if err != nil {
			return keys[0], true
		}
		if version.Compare(tuple, latestTuple) > 0 {
			latest, latestTuple = k, tuple
		}
	}
	return latest, true
}

// Platform returns entries whose platform equals name, ignoring case.
// Surrounding whitespace is significant: " linux " does not match "linux".
func Platform(entries []models.DownloadEntry, name string) []models.DownloadEntry {
	want := strings.ToLower(name)
	var out []models.DownloadEntry
	for _, e := range entries {
		if strings.ToLower(e.Platform) == want {
			out = append(out, e)
		}
	}
	return out
}

// LatestPlatform returns a map holding only the latest version and only its
// entries for platform. The boolean is false when there is nothing to hold.
func LatestPlatform(m *models.VersionMap, platform string) (*models.VersionMap, string, bool) {
	latest, ok := LatestVersion(m)
	if !ok {
		return nil, "", false
	}
	entries, _ := m.Get(latest)
	filtered := Platform(entries, platform)
	if len(filtered) == 0 {
		return nil, latest, false
	}
	out := models.NewVersionMap()
	for _, e := range filtered {
		out.Add(latest, e)
	}
	return out, latest, true
}

// LatestLinux is LatestPlatform for Linux.
func LatestLinux(m *models.VersionMap) (*models.VersionMap, string, bool) {
	return LatestPlatform(m, Linux)
}

// Strategy selects a subset of a result. A nil or zero Strategy keeps everything.
type Strategy struct {
	Platforms map[string]struct{} // lowercased platform names
	Version   string              // "latest", an exact version, or empty for all
}

// ParseStrategy parses "platform:linux|darwin,version:latest".
func ParseStrategy(strategyStr string) (*Strategy, error) {
	strategy := &Strategy{}
	if strings.TrimSpace(strategyStr) == "" {
		return strategy, nil
	}

	parts := strings.Split(strategyStr, ",")
	for _, part := range parts {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid strategy part: %s", part)
		}
		key := strings.TrimSpace(kv[0])
		value := strings.TrimSpace(kv[1])
		if value == "" {
			return nil, fmt.Errorf("empty value for strategy key: %s", key)
		}

		switch key {
		case "platform":
			if strategy.Platforms == nil {
				strategy.Platforms = make(map[string]struct{})
			}
			for _, p := range strings.Split(value, "|") {
				if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
					strategy.Platforms[p] = struct{}{}
				}
			}
		case "version":
			strategy.Version = value
		default:
			return nil, fmt.Errorf("unknown strategy key: %s", key)
		}
	}

	return strategy, nil
}

// Apply returns the entries of m selected by strategy, in the original
// order. Versions with no selected entries are left out.
func Apply(m *models.VersionMap, strategy *Strategy) *models.VersionMap {
	out := models.NewVersionMap()
	if strategy == nil {
		strategy = &Strategy{}
	}

	keys := m.Keys()
	switch strategy.Version {
	case "":
	case "latest":
		latest, ok := LatestVersion(m)
		if !ok {
			return out
		}
		keys = []string{latest}
	default:
		keys = []string{strategy.Version}
	}

	for _, k := range keys {
		entries, _ := m.Get(k)
		for _, e := range entries {
			if len(strategy.Platforms) > 0 {
				if _, ok := strategy.Platforms[strings.ToLower(e.Platform)]; !ok {
					continue
				}
			}
			out.Add(k, e)
		}
	}
	return out
}
