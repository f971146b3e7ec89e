// Package models defines data structures for configuration and extraction results.
package models

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultTargetURL = "https://www.cursor.com/cn/downloads"

// ExtractConfig holds runtime configuration for an extraction run.
// Values come from an optional YAML file and are then overridden by CLI flags.
type ExtractConfig struct {
	TargetURL string `yaml:"target_url"`
	UserAgent string `yaml:"user_agent"`
	Headless  bool   `yaml:"headless"`

	// Selectors used to locate sections, headings, links and link labels.
	SectionSelector string `yaml:"section_selector"`
	HeadingSelector string `yaml:"heading_selector"`
	LinkSelector    string `yaml:"link_selector"`
	LabelSelector   string `yaml:"label_selector"`

	// Download request predicate: URL must contain one of DownloadHosts
	// and end with one of DownloadExtensions.
	DownloadHosts      []string `yaml:"download_hosts"`
	DownloadExtensions []string `yaml:"download_extensions"`

	BrowserLaunchTimeout  Duration `yaml:"browser_launch_timeout"`
	PageLoadTimeout       Duration `yaml:"page_load_timeout"`
	ElementWaitTimeout    Duration `yaml:"element_wait_timeout"`
	ElementVisibleTimeout Duration `yaml:"element_visible_timeout"`
	TextFetchTimeout      Duration `yaml:"text_fetch_timeout"`
	ClickTimeout          Duration `yaml:"click_timeout"`
	RequestWaitTimeout    Duration `yaml:"request_wait_timeout"`

	RetryCount   int      `yaml:"retry_count"`
	RetryBackoff Duration `yaml:"retry_backoff"` // multiplied by the attempt number
	LinkPause    Duration `yaml:"link_pause"`
	SettleDelay  Duration `yaml:"settle_delay"`

	ReloadBetweenSections bool `yaml:"reload_between_sections"`

	// Output
	OutputDir    string `yaml:"output_dir"`
	OutputPrefix string `yaml:"output_prefix"`
	OutputFormat string `yaml:"output_format"` // json or yaml
	Platform     string `yaml:"platform"`      // platform used for the latest projection
}

// Duration wraps time.Duration so it can be written as "12s" in YAML.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalYAML accepts Go duration strings ("500ms") or bare integers (milliseconds).
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	raw = strings.TrimSpace(raw)
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		ms, convErr := strconv.ParseInt(raw, 10, 64)
		if convErr != nil {
			return fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		parsed = time.Duration(ms) * time.Millisecond
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// DefaultConfig returns the configuration used when no file or flag overrides a value.
func DefaultConfig() *ExtractConfig {
	return &ExtractConfig{
		TargetURL: DefaultTargetURL,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36",
		Headless:  true,

		SectionSelector: "main > div > div > section",
		HeadingSelector: `p[class*="text-2xl"], p[class*="text-4xl"]`,
		LinkSelector:    "div.grid a",
		LabelSelector:   "p",

		DownloadHosts:      []string{"downloads.cursor.com/production/"},
		DownloadExtensions: []string{".dmg", ".exe", ".AppImage"},

		BrowserLaunchTimeout:  Duration(20 * time.Second),
		PageLoadTimeout:       Duration(35 * time.Second),
		ElementWaitTimeout:    Duration(15 * time.Second),
		ElementVisibleTimeout: Duration(7 * time.Second),
		TextFetchTimeout:      Duration(5 * time.Second),
		ClickTimeout:          Duration(8 * time.Second),
		RequestWaitTimeout:    Duration(12 * time.Second),

		RetryCount:   1,
		RetryBackoff: Duration(500 * time.Millisecond),
		LinkPause:    Duration(150 * time.Millisecond),
		SettleDelay:  Duration(500 * time.Millisecond),

		OutputDir:    ".",
		OutputPrefix: "cursor_downloads",
		OutputFormat: "json",
		Platform:     "linux",
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
// An empty path returns the defaults.
func LoadConfig(path string) (*ExtractConfig, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks that the configuration can drive a run.
func (c *ExtractConfig) Validate() error {
	if strings.TrimSpace(c.TargetURL) == "" {
		return fmt.Errorf("target_url is required")
	}
	if c.SectionSelector == "" || c.LinkSelector == "" || c.HeadingSelector == "" || c.LabelSelector == "" {
		return fmt.Errorf("section, heading, link and label selectors are required")
	}
	if c.RetryCount < 0 {
		return fmt.Errorf("retry_count must be >= 0, got %d", c.RetryCount)
	}
	if len(c.DownloadHosts) == 0 || len(c.DownloadExtensions) == 0 {
		return fmt.Errorf("download_hosts and download_extensions must not be empty")
	}
	switch strings.ToLower(c.OutputFormat) {
	case "json", "yaml":
	default:
		return fmt.Errorf("output_format must be json or yaml, got %q", c.OutputFormat)
	}
	timeouts := map[string]Duration{
		"page_load_timeout":       c.PageLoadTimeout,
		"element_wait_timeout":    c.ElementWaitTimeout,
		"element_visible_timeout": c.ElementVisibleTimeout,
		"text_fetch_timeout":      c.TextFetchTimeout,
		"click_timeout":           c.ClickTimeout,
		"request_wait_timeout":    c.RequestWaitTimeout,
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

// IsDownloadURL reports whether a request URL looks like a release artifact.
func (c *ExtractConfig) IsDownloadURL(rawURL string) bool {
	hostMatch := false
	for _, host := range c.DownloadHosts {
		if strings.Contains(rawURL, host) {
			hostMatch = true
			break
		}
	}
	if !hostMatch {
		return false
	}
	for _, ext := range c.DownloadExtensions {
		if strings.HasSuffix(rawURL, ext) {
			return true
		}
	}
	return false
}
