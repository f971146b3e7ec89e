package extract

import (
	"errors"
	"testing"

	"github.com/dtnitsch/release-scraper/models"
	dbpkg "github.com/dtnitsch/release-scraper/pkg/db"
	"github.com/dtnitsch/release-scraper/pkg/extractor"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestOverridesApply(t *testing.T) {
	config := models.DefaultConfig()
	o := Overrides{
		URL:     ptr(" https://www.cursor.com/downloads, "),
		Format:  ptr("YAML"),
		Retries: ptr(3),
		Headed:  ptr(true),
	}
	require.NoError(t, o.Apply(config))
	require.Equal(t, "https://www.cursor.com/downloads", config.TargetURL)
	require.Equal(t, "yaml", config.OutputFormat)
	require.Equal(t, 3, config.RetryCount)
	require.False(t, config.Headless)
	require.Equal(t, "cursor_downloads", config.OutputPrefix)
}

func TestOverridesApply_Invalid(t *testing.T) {
	require.Error(t, Overrides{URL: ptr("ftp://example.com")}.Apply(models.DefaultConfig()))
	require.Error(t, Overrides{Retries: ptr(-1)}.Apply(models.DefaultConfig()))
	require.Error(t, Overrides{Format: ptr("xml")}.Apply(models.DefaultConfig()))
}

func TestOutcome(t *testing.T) {
	ok := models.NewAggregateResult("u")
	partial := models.NewAggregateResult("u")
	partial.FailCount = 2

	tests := []struct {
		name   string
		agg    *models.AggregateResult
		err    error
		status string
		code   int
	}{
		{"success", ok, nil, dbpkg.StatusSuccess, ExitOK},
		{"partial", partial, nil, dbpkg.StatusPartial, ExitPartial},
		{"no data", partial, extractor.ErrNoDataExtracted, dbpkg.StatusNoData, ExitPartial},
		{"hard failure", nil, &extractor.Error{Kind: extractor.KindLoadTimeout, Msg: "x"}, dbpkg.StatusFailed, ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := Outcome(tt.agg, tt.err)
			require.Equal(t, tt.status, status)
			require.Equal(t, tt.code, code)
		})
	}
}

func TestErrorKind(t *testing.T) {
	err := &extractor.Error{Kind: extractor.KindNoSectionsFound, Msg: "none"}
	require.Equal(t, "NoSectionsFound", errorKind(err))
	require.Equal(t, "NoDataExtracted", errorKind(extractor.ErrNoDataExtracted))
	require.Equal(t, "", errorKind(errors.New("other")))
	require.Equal(t, "", errorKind(nil))
}
