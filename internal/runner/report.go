package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
)

// Status is the result of one scenario.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// SuiteStatus is the result of a whole run.
type SuiteStatus string

const (
	SuiteStatusPassed SuiteStatus = "passed"
	SuiteStatusFailed SuiteStatus = "failed"
	// SuiteStatusFatal means fixtures could not be provisioned and no scenario ran.
	SuiteStatusFatal SuiteStatus = "fatal"

	errorMessageWriteReport = "runner: write report"
	reportFilePermissions   = 0o644
	reportDirectoryMode     = 0o755
)

// ScenarioResult is the outcome of one scenario row.
type ScenarioResult struct {
	Table      string        `json:"table"`
	Scenario   string        `json:"scenario"`
	Action     model.Action  `json:"action"`
	Status     Status        `json:"status"`
	Duration   time.Duration `json:"duration_ns"`
	Error      string        `json:"error,omitempty"`
	Screenshot string        `json:"screenshot,omitempty"`
}

// Report collects the results of a run.
type Report struct {
	ID           uuid.UUID        `json:"id"`
	StartedAt    time.Time        `json:"started_at"`
	FinishedAt   time.Time        `json:"finished_at"`
	Status       SuiteStatus      `json:"status"`
	FixtureError string           `json:"fixture_error,omitempty"`
	Results      []ScenarioResult `json:"results"`
}

func newReport(startedAt time.Time) *Report {
	return &Report{ID: uuid.New(), StartedAt: startedAt, Status: SuiteStatusPassed}
}

func (report *Report) add(result ScenarioResult) {
	report.Results = append(report.Results, result)
	if result.Status == StatusFailed && report.Status == SuiteStatusPassed {
		report.Status = SuiteStatusFailed
	}
}

// Counts returns how many scenarios passed, failed and were skipped.
func (report *Report) Counts() (int, int, int) {
	var passed, failed, skipped int
	for _, result := range report.Results {
		switch result.Status {
		case StatusPassed:
			passed++
		case StatusFailed:
			failed++
		default:
			skipped++
		}
	}
	return passed, failed, skipped
}

// Failures returns the failed results in run order.
func (report *Report) Failures() []ScenarioResult {
	var failures []ScenarioResult
	for _, result := range report.Results {
		if result.Status == StatusFailed {
			failures = append(failures, result)
		}
	}
	return failures
}

// Summary is a one-line description of the run.
func (report *Report) Summary() string {
	passed, failed, skipped := report.Counts()
	return fmt.Sprintf("%s: %d passed, %d failed, %d skipped in %s", report.Status, passed, failed, skipped, report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
}

// WriteJSON writes the report as indented JSON, creating the parent directory.
func (report *Report) WriteJSON(path string) error {
	encoded, encodeErr := json.MarshalIndent(report, "", "  ")
	if encodeErr != nil {
		return fmt.Errorf("%s: %w", errorMessageWriteReport, encodeErr)
	}
	if directoryErr := os.MkdirAll(filepath.Dir(path), reportDirectoryMode); directoryErr != nil {
		return fmt.Errorf("%s: %w", errorMessageWriteReport, directoryErr)
	}
	if writeErr := os.WriteFile(path, append(encoded, '\n'), reportFilePermissions); writeErr != nil {
		return fmt.Errorf("%s: %w", errorMessageWriteReport, writeErr)
	}
	return nil
}
