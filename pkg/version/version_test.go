package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		index     int
		want      string
		wantFound bool
	}{
		{"dotted with wording", "Version 1.12.3 (stable)", 0, "1.12.3", true},
		{"parenthesized dotted", "Latest (2.0.1)", 0, "2.0.1", true},
		{"parenthesized integer", "Nightly (20250101)", 4, "20250101", true},
		{"two groups", "Cursor 0.50", 0, "0.50", true},
		{"first match wins", "1.2.3 replaces 1.2.2", 0, "1.2.3", true},
		{"unicode wording", "版本 1.0.0 （最新）", 0, "1.0.0", true},
		{"no version", "Beta", 2, "Unknown_Version_3", false},
		{"bare integer", "Release 7", 0, "Unknown_Version_1", false},
		{"title fetch failure", "Failed_Title_Fetch_5", 4, "Unknown_Version_5", false},
		{"empty", "", 0, "Unknown_Version_1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Parse(tt.raw, tt.index)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.wantFound, found)
		})
	}
}

func TestParseTuple(t *testing.T) {
	got, err := ParseTuple("1.12.3")
	require.NoError(t, err)
	require.Equal(t, []int{1, 12, 3}, got)

	for _, bad := range []string{"", "Unknown_Version_1", "1..2", "1.2.", ".", "1.-2", "1.x"} {
		_, err := ParseTuple(bad)
		require.Error(t, err, "ParseTuple(%q)", bad)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b []int
		want int
	}{
		{[]int{1, 3, 0}, []int{1, 2, 0}, 1},
		{[]int{1, 2, 0}, []int{1, 3, 0}, -1},
		{[]int{1, 10}, []int{1, 9}, 1},
		{[]int{1, 2}, []int{1, 2, 0}, -1},
		{[]int{2}, []int{1, 99, 99}, 1},
		{[]int{1, 2, 3}, []int{1, 2, 3}, 0},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Compare(tt.a, tt.b), "Compare(%v, %v)", tt.a, tt.b)
	}
}
