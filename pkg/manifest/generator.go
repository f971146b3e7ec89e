package manifest

import (
	"fmt"
	"strings"
	"time"

	"github.com/dtnitsch/release-scraper/models"
	"github.com/dtnitsch/release-scraper/pkg/projector"
	"github.com/dtnitsch/release-scraper/pkg/storage"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"

	FailuresFile = "failed-links.yaml"
	ManifestFile = "manifest.json"
)

// Options controls file naming.
type Options struct {
	Prefix   string
	Format   string // json or yaml
	Platform string
}

func (o Options) ext() string {
	if o.Format == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// AllFileName is the name of the full result file.
func AllFileName(o Options) string {
	return o.Prefix + "_all" + o.ext()
}

// LatestFileName is the name of the latest-platform projection file.
func LatestFileName(o Options) string {
	return fmt.Sprintf("%s_latest_%s%s", o.Prefix, strings.ToLower(o.Platform), o.ext())
}

// pendingFile is a rendered payload waiting to be saved.
type pendingFile struct {
	name string
	kind string
	data []byte
}

// WriteResults writes the result files for a finished run and the summary
// manifest describing them. Empty data files are skipped. Every payload is
// rendered before anything touches the disk; if a save fails, files already
// saved by this call are removed again. Result files left over from an
// earlier run in the same directory that this run does not produce are
// deleted once the manifest is in place.
func WriteResults(s *storage.Storage, agg *models.AggregateResult, o Options) (*SummaryManifest, error) {
	if o.Platform == "" {
		o.Platform = projector.Linux
	}

	manifest := &SummaryManifest{
		GeneratedAt:     time.Now().Format(time.RFC3339),
		TargetURL:       agg.TargetURL,
		PageTitle:       agg.PageTitle,
		Sections:        agg.SectionCount,
		Versions:        agg.Versions.Keys(),
		Successful:      agg.SuccessCount,
		Failed:          agg.FailCount,
		DurationSeconds: agg.Duration.Seconds(),
		Platform:        strings.ToLower(o.Platform),
		Files:           []FileSummary{},
	}

	var files []pendingFile
	if !agg.IsEmpty() {
		data, err := encode(agg.Versions, o.Format)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", AllFileName(o), err)
		}
		files = append(files, pendingFile{name: AllFileName(o), kind: "all", data: data})
	}

	projection, latest, ok := projector.LatestPlatform(agg.Versions, o.Platform)
	manifest.LatestVersion = latest
	if ok {
		manifest.PlatformEntries = projection.EntryCount()
		data, err := encode(projection, o.Format)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", LatestFileName(o), err)
		}
		files = append(files, pendingFile{name: LatestFileName(o), kind: "latest", data: data})
	}

	if len(agg.Failures) > 0 {
		data, err := storage.EncodeYAML(NewFailureReport(agg))
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", FailuresFile, err)
		}
		files = append(files, pendingFile{name: FailuresFile, kind: "failures", data: data})
	}

	if err := saveAll(s, files, manifest); err != nil {
		return nil, err
	}
	removeStale(s, files, AllFileName(o), LatestFileName(o), FailuresFile)
	return manifest, nil
}

// saveAll saves files, records their on-disk sizes in manifest and saves
// the manifest last.
func saveAll(s *storage.Storage, files []pendingFile, manifest *SummaryManifest) (err error) {
	var saved []string
	defer func() {
		if err != nil {
			for _, name := range saved {
				_ = s.Remove(name)
			}
		}
	}()

	for _, f := range files {
		if err := s.SaveFile(f.name, f.data); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		saved = append(saved, f.name)

		stats, err := s.GetFileStats(f.name)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", f.name, err)
		}
		manifest.Files = append(manifest.Files, FileSummary{Name: f.name, Kind: f.kind, SizeBytes: stats.SizeBytes})
	}

	data, err := storage.EncodeJSON(manifest)
	if err != nil {
		return fmt.Errorf("error rendering manifest: %w", err)
	}
	if err := s.SaveFile(ManifestFile, data); err != nil {
		return fmt.Errorf("error saving manifest: %w", err)
	}
	return nil
}

func removeStale(s *storage.Storage, written []pendingFile, candidates ...string) {
	keep := make(map[string]bool, len(written))
	for _, f := range written {
		keep[f.name] = true
	}
	for _, name := range candidates {
		if !keep[name] && s.HasFile(name) {
			_ = s.Remove(name)
		}
	}
}

// NewFailureReport lists the exhausted links of a run.
func NewFailureReport(agg *models.AggregateResult) FailureReport {
	report := FailureReport{TargetURL: agg.TargetURL, Count: len(agg.Failures)}
	for _, f := range agg.Failures {
		report.Links = append(report.Links, FailureRecord(f))
	}
	return report
}

func encode(v interface{}, format string) ([]byte, error) {
	if format == FormatYAML {
		return storage.EncodeYAML(v)
	}
	return storage.EncodeJSON(v)
}
