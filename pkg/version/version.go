// Package version turns section headings into version identifiers and
// orders dotted numeric versions.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	dottedPattern        = regexp.MustCompile(`\d+(?:\.\d+)+`)
	parenthesizedPattern = regexp.MustCompile(`\(([\d.]+)\)`)
)

// Placeholder returns the version used for a section whose heading has no
// recognizable version. sectionIndex is zero-based.
func Placeholder(sectionIndex int) string {
	return fmt.Sprintf("Unknown_Version_%d", sectionIndex+1)
}

// Parse extracts a version from heading text. The first dotted numeric run
// wins; otherwise a parenthesized numeric run; otherwise the positional
// placeholder. The boolean is false when the placeholder was used.
func Parse(raw string, sectionIndex int) (string, bool) {
	if m := dottedPattern.FindString(raw); m != "" {
		return m, true
	}
	if m := parenthesizedPattern.FindStringSubmatch(raw); len(m) > 1 {
		return m[1], true
	}
	return Placeholder(sectionIndex), false
}

// ParseTuple splits a dotted version into its numeric components.
func ParseTuple(v string) ([]int, error) {
	if v == "" {
		return nil, fmt.Errorf("empty version")
	}
	parts := strings.Split(v, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("version %q: component %q is not numeric", v, p)
		}
		out[i] = n
	}
	return out, nil
}

// Compare orders two component tuples. A tuple that is a strict prefix of
// the other sorts first, so 1.2 < 1.2.0.
func Compare(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}
