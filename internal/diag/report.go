package diag

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Report is the machine-readable run summary written by `adx generate
// --report`. Unlike the generated document, the report carries a timestamp:
// it describes a run, not the tree.
type Report struct {
	RunID       string       `yaml:"runId"`
	GeneratedAt string       `yaml:"generatedAt"`
	Records     int          `yaml:"records"`
	UsageSites  int          `yaml:"usageSites"`
	FilesParsed int          `yaml:"filesParsed"`
	Diagnostics []Diagnostic `yaml:"diagnostics"`
}

// NewReport builds a report from run counters and collected diagnostics.
func NewReport(runID string, records, usageSites, filesParsed int, items []Diagnostic) *Report {
	if items == nil {
		items = []Diagnostic{}
	}
	return &Report{
		RunID:       runID,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Records:     records,
		UsageSites:  usageSites,
		FilesParsed: filesParsed,
		Diagnostics: items,
	}
}

// Write serializes the report as YAML to path.
func (r *Report) Write(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
