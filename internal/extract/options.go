package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dtnitsch/release-scraper/internal/common"
	"github.com/dtnitsch/release-scraper/models"
	dbpkg "github.com/dtnitsch/release-scraper/pkg/db"
	"github.com/dtnitsch/release-scraper/pkg/extractor"
)

// Exit codes shared by the extract command.
const (
	ExitOK      = 0
	ExitPartial = 1 // some links failed, or nothing was extracted
	ExitFailure = 2
)

// Overrides are the command line values that replace config file values.
// Nil pointers leave the config untouched.
type Overrides struct {
	URL                   *string
	OutputDir             *string
	Prefix                *string
	Format                *string
	Platform              *string
	Retries               *int
	ReloadBetweenSections *bool
	Headed                *bool
}

// Apply writes the set overrides into config, then validates the result.
func (o Overrides) Apply(config *models.ExtractConfig) error {
	if o.URL != nil {
		config.TargetURL = *o.URL
	}
	if o.OutputDir != nil {
		config.OutputDir = *o.OutputDir
	}
	if o.Prefix != nil {
		config.OutputPrefix = *o.Prefix
	}
	if o.Format != nil {
		config.OutputFormat = *o.Format
	}
	if o.Platform != nil {
		config.Platform = *o.Platform
	}
	if o.Retries != nil {
		config.RetryCount = *o.Retries
	}
	if o.ReloadBetweenSections != nil {
		config.ReloadBetweenSections = *o.ReloadBetweenSections
	}
	if o.Headed != nil {
		config.Headless = !*o.Headed
	}

	config.OutputFormat = strings.ToLower(strings.TrimSpace(config.OutputFormat))
	cleaned, err := common.SanitizeAndValidateURL(config.TargetURL)
	if err != nil {
		return fmt.Errorf("invalid target url: %w", err)
	}
	config.TargetURL = cleaned

	return config.Validate()
}

// Outcome maps the result of a run to its recorded status and exit code.
func Outcome(agg *models.AggregateResult, err error) (status string, code int) {
	switch {
	case errors.Is(err, extractor.ErrNoDataExtracted):
		return dbpkg.StatusNoData, ExitPartial
	case err != nil:
		return dbpkg.StatusFailed, ExitFailure
	case agg.FailCount > 0:
		return dbpkg.StatusPartial, ExitPartial
	}
	return dbpkg.StatusSuccess, ExitOK
}

// errorKind returns the taxonomy kind of err, or "" when it has none.
func errorKind(err error) string {
	var e *extractor.Error
	if errors.As(err, &e) {
		return string(e.Kind)
	}
	if errors.Is(err, extractor.ErrNoDataExtracted) {
		return "NoDataExtracted"
	}
	return ""
}
