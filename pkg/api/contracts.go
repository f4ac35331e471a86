// Package api holds the JSON contracts shared by the CLI, the ingest
// service, and downstream consumers of run reports.
package api

import (
	"time"

	"github.com/google/uuid"
)

// InputOutcome classifies what happened to one RawInput in a run.
type InputOutcome string

const (
	OutcomeMerged    InputOutcome = "merged"
	OutcomeDuplicate InputOutcome = "duplicate_skip"
	OutcomeRejected  InputOutcome = "rejected"
)

// InputResult is the per-input line of the run report.
type InputResult struct {
	Name        string       `json:"name"`
	Channel     string       `json:"channel"`
	Fingerprint string       `json:"fingerprint"`
	Outcome     InputOutcome `json:"outcome"`
	Records     int          `json:"records"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	Error       string       `json:"error,omitempty"`
	ErrorCode   string       `json:"error_code,omitempty"`
}

// Diagnostic is a non-fatal row-level issue surfaced alongside parsed data.
type Diagnostic struct {
	Input   string `json:"input,omitempty"`
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

// RunReport summarizes one pipeline run.
type RunReport struct {
	RunID       uuid.UUID     `json:"run_id"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Inputs      []InputResult `json:"inputs"`

	RecordsMerged   int `json:"records_merged"`
	RecordsReplaced int `json:"records_replaced"`
	DatasetSize     int `json:"dataset_size"`
	AccountsScored  int `json:"accounts_scored"`

	StatusDiagnostics []Diagnostic `json:"status_diagnostics,omitempty"`
	Artifacts         []string     `json:"artifacts"`
}

// TotalDiagnostics counts row-level diagnostics across all inputs.
func (r *RunReport) TotalDiagnostics() int {
	n := len(r.StatusDiagnostics)
	for _, in := range r.Inputs {
		n += len(in.Diagnostics)
	}
	return n
}
