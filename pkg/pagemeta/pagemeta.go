// Package pagemeta pulls descriptive metadata out of a rendered page snapshot.
package pagemeta

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// Title returns the page title. Readability's article title is preferred;
// the <title> element is used when readability finds none.
func Title(html, pageURL string) (string, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page URL: %w", err)
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), parsedURL)
	if err == nil {
		if title := strings.TrimSpace(article.Title); title != "" {
			return title, nil
		}
	}

	doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(html))
	if docErr != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", docErr)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" && err != nil {
		return "", fmt.Errorf("failed to extract title: %w", err)
	}
	return title, nil
}
