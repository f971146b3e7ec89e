package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeAndValidateURL(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"https://www.cursor.com/downloads", "https://www.cursor.com/downloads", false},
		{"  https://www.cursor.com/downloads,  ", "https://www.cursor.com/downloads", false},
		{"[downloads](https://www.cursor.com/downloads)", "https://www.cursor.com/downloads", false},
		{"<http://localhost:8080/page>", "http://localhost:8080/page", false},
		{"ftp://example.com/file", "", true},
		{"https://exa mple.com", "", true},
		{"not a url", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := SanitizeAndValidateURL(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestContentHash(t *testing.T) {
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", ContentHash(nil))
	require.Equal(t, ContentHash([]byte("a")), ContentHash([]byte("a")))
	require.NotEqual(t, ContentHash([]byte("a")), ContentHash([]byte("b")))
}
