package manifest

// SummaryManifest is written next to the result files. It gives a
// lightweight overview of a run without reading the full result.
type SummaryManifest struct {
	GeneratedAt     string        `json:"generated_at"`
	TargetURL       string        `json:"target_url"`
	PageTitle       string        `json:"page_title,omitempty"`
	Sections        int           `json:"sections"`
	Versions        []string      `json:"versions"`
	Successful      int           `json:"successful"`
	Failed          int           `json:"failed"`
	DurationSeconds float64       `json:"duration_seconds"`
	LatestVersion   string        `json:"latest_version,omitempty"`
	Platform        string        `json:"platform"`
	PlatformEntries int           `json:"platform_entries"`
	Files           []FileSummary `json:"files"`
}

// FileSummary describes one file written for the run.
type FileSummary struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"` // "all", "latest", "failures" or "manifest"
	SizeBytes int64  `json:"size_bytes"`
}

// FailureReport is the content of failed-links.yaml.
type FailureReport struct {
	TargetURL string          `yaml:"target_url"`
	Count     int             `yaml:"count"`
	Links     []FailureRecord `yaml:"links"`
}

type FailureRecord struct {
	Version     string `yaml:"version"`
	Section     int    `yaml:"section"`
	Link        int    `yaml:"link"`
	Platform    string `yaml:"platform"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Attempts    int    `yaml:"attempts"`
	Marker      string `yaml:"marker"`
}
