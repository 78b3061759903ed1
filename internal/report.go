package internal

import (
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// MergeReport summarizes one completed merge run
type MergeReport struct {
	GeneratedAt string           `yaml:"generated_at"`
	Output      string           `yaml:"output"`
	Archives    []ArchiveReport  `yaml:"archives"`
	Categories  []CategoryReport `yaml:"categories"`
	Media       MediaReport      `yaml:"media"`
}

// ArchiveReport describes one source archive as merged
type ArchiveReport struct {
	Path           string `yaml:"path"`
	UserName       string `yaml:"username"`
	GenerationDate string `yaml:"generation_date"`
	Legacy         bool   `yaml:"legacy,omitempty"`
}

// CategoryReport gives per-category record accounting
type CategoryReport struct {
	Name    string `yaml:"name"`
	Loaded  int    `yaml:"loaded"`
	Removed int    `yaml:"removed,omitempty"`
	Written int    `yaml:"written"`
}

// MediaReport gives media copy accounting
type MediaReport struct {
	Copied  int `yaml:"copied"`
	Skipped int `yaml:"skipped"`
}

// Report builds the summary of a finished run. Call only after Run has
// returned successfully.
func (s *MergeSession) Report() *MergeReport {
	report := &MergeReport{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Output:      s.outputPath,
	}

	for _, archive := range s.archives {
		report.Archives = append(report.Archives, ArchiveReport{
			Path:           archive.Root,
			UserName:       archive.Manifest.UserInfo.UserName,
			GenerationDate: archive.GenerationDate(),
			Legacy:         archive.Legacy,
		})
	}

	categories := make([]string, 0, len(s.merged))
	for name := range s.merged {
		categories = append(categories, name)
	}
	sort.Strings(categories)
	for _, name := range categories {
		report.Categories = append(report.Categories, CategoryReport{
			Name:    name,
			Loaded:  s.loaded[name],
			Removed: s.removed[name],
			Written: len(s.merged[name]),
		})
	}

	if s.media != nil {
		report.Media.Copied, report.Media.Skipped = s.media.Stats()
	}
	return report
}

// Save writes the report as YAML
func (r *MergeReport) Save(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
