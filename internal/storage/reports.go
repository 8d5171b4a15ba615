package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rewired-gh/fixtureverify/internal/hints"
	"github.com/rewired-gh/fixtureverify/internal/models"
)

// HintsFile is the document consumed by the event discovery process.
type HintsFile struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	Hints       []hints.Hint `json:"hints"`
}

// IssuesReport is the health report merged into the overall status page.
type IssuesReport struct {
	GeneratedAt time.Time      `yaml:"generatedAt"`
	RunID       string         `yaml:"runId"`
	Errors      int            `yaml:"errors"`
	Warnings    int            `yaml:"warnings"`
	Issues      []models.Issue `yaml:"issues"`
}

// WriteHints writes the current hint list to path. An empty list is written
// as [] so consumers can tell "no hints" from "never generated".
func (s *Store) WriteHints(path string, hs []hints.Hint, now time.Time) error {
	if hs == nil {
		hs = []hints.Hint{}
	}
	data, err := json.MarshalIndent(HintsFile{GeneratedAt: now.UTC(), Hints: hs}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal hints: %w", err)
	}
	return writeAtomic(path, data, s.filePermissions, s.dirPermissions)
}

// WriteIssues writes the health issues of one run to path as YAML.
func (s *Store) WriteIssues(path, runID string, issues []models.Issue, now time.Time) error {
	report := IssuesReport{GeneratedAt: now.UTC(), RunID: runID, Issues: issues}
	if report.Issues == nil {
		report.Issues = []models.Issue{}
	}
	for i := range report.Issues {
		if err := report.Issues[i].Validate(); err != nil {
			return fmt.Errorf("invalid issue %d: %w", i, err)
		}
		switch report.Issues[i].Severity {
		case models.SeverityError:
			report.Errors++
		case models.SeverityWarning:
			report.Warnings++
		}
	}

	data, err := yaml.Marshal(&report)
	if err != nil {
		return fmt.Errorf("failed to marshal issues: %w", err)
	}
	return writeAtomic(path, data, s.filePermissions, s.dirPermissions)
}
