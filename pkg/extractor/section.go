package extractor

import (
	"context"
	"fmt"

	"github.com/dtnitsch/release-scraper/models"
	"github.com/dtnitsch/release-scraper/pkg/browser"
	"github.com/dtnitsch/release-scraper/pkg/version"
)

// SectionReport tracks progress through one version section.
type SectionReport struct {
	Index     int
	Heading   string
	Version   string
	LinkCount int // -1 until counted
	Processed int
	Succeeded int
	Failed    int
}

// ProcessSection resolves the heading and every link of section index,
// adding successes to agg and counting exhausted links as failures.
// Only a cancelled context is returned as an error.
func (e *Engine) ProcessSection(ctx context.Context, index int, agg *models.AggregateResult, report *SectionReport) error {
	report.Index = index
	report.LinkCount = -1

	report.Heading = e.headingText(index)
	v, found := version.Parse(report.Heading, index)
	if !found {
		e.logger.Warn("Could not extract standard version number", "section", index+1, "heading", report.Heading)
	}
	report.Version = v
	e.logger.Info("Processing section", "section", index+1, "heading", report.Heading, "version", v)

	links := e.links(index)
	count, err := links.Count()
	if err != nil {
		e.logger.Error("Error counting links in section", "section", index+1, "kind", KindLinkCountFailure, "error", err)
		e.failUncountedLinks(index, 0, -1, agg)
		return nil
	}
	report.LinkCount = count
	e.logger.Info("Found download links", "version", v, "count", count)

	for i := 0; i < count; i++ {
		if i > 0 {
			if err := e.sleep(ctx, e.config.LinkPause.Std()); err != nil {
				return err
			}
		}

		outcome, err := e.CaptureLink(ctx, LinkCoord{Section: index, Link: i, Version: v, Total: count})
		if err != nil {
			return err
		}
		report.Processed++

		if outcome.Succeeded() {
			agg.Versions.Add(v, outcome.Entry)
			agg.SuccessCount++
			report.Succeeded++
			continue
		}

		agg.FailCount++
		report.Failed++
		agg.Failures = append(agg.Failures, models.LinkFailure{
			Version:     v,
			Section:     index,
			Link:        i,
			Platform:    outcome.Entry.Platform,
			Description: outcome.Entry.Description,
			Category:    string(outcome.Category),
			Attempts:    outcome.Attempts,
			Marker:      outcome.Entry.URL,
		})
	}
	return nil
}

// headingText reads the section heading. A failure is recovered by
// returning a placeholder that the version parser maps to Unknown_Version_N.
func (e *Engine) headingText(index int) string {
	heading := e.section(index).Locate(e.config.HeadingSelector).First()
	err := heading.WaitFor(browser.StateVisible, e.config.ElementVisibleTimeout.Std())
	if err == nil {
		var text string
		text, err = heading.InnerText(e.config.TextFetchTimeout.Std())
		if err == nil {
			return text
		}
	}
	e.logger.Warn("Failed to get version title", "section", index+1, "kind", KindTitleFetchFailure, "error", err)
	return fmt.Sprintf("Failed_Title_Fetch_%d", index+1)
}
